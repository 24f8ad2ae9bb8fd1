package handlers

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/sharegate/dto"
	"github.com/lac-hong-legacy/sharegate/shared"
)

type AdminHandler struct {
	adminSvc AdminServiceInterface
}

func NewAdminHandler(adminSvc AdminServiceInterface) *AdminHandler {
	return &AdminHandler{
		adminSvc: adminSvc,
	}
}

func queryLimit(c *fiber.Ctx) int {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return limit
}

// @Summary Abuse report for a user (Admin)
// @Description Score a user's recent activity against their tier limits. Advisory only.
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param userId path string true "User ID"
// @Success 200 {object} shared.Response{data=dto.AbuseReport}
// @Failure 404 {object} shared.Response
// @Router /api/v1/admin/abuse/users/{userId} [get]
func (h *AdminHandler) AbuseUser(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if userID == "" {
		return shared.ResponseJSON(c, http.StatusBadRequest, "User ID is required", nil)
	}

	report, err := h.adminSvc.AbuseReport(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", report)
}

// @Summary Upload check for an address (Admin)
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param ip path string true "Client IP"
// @Success 200 {object} shared.Response{data=dto.IPUploadReport}
// @Router /api/v1/admin/abuse/ips/{ip} [get]
func (h *AdminHandler) AbuseIP(c *fiber.Ctx) error {
	ip := c.Params("ip")
	if net.ParseIP(ip) == nil {
		return shared.ResponseJSON(c, http.StatusBadRequest, "A valid IP address is required", nil)
	}

	report, err := h.adminSvc.CheckIP(ip)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", report)
}

// @Summary Run an abuse scan (Admin)
// @Description Score every active owner now and return the flagged reports.
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Success 200 {object} shared.Response{data=[]dto.AbuseReport}
// @Router /api/v1/admin/abuse/scan [post]
func (h *AdminHandler) AbuseScan(c *fiber.Ctx) error {
	reports, err := h.adminSvc.Scan(c.UserContext())
	if err != nil {
		return shared.NewInternalError(err)
	}

	return shared.ResponseJSON(c, http.StatusOK, "Scan complete", reports)
}

func (h *AdminHandler) ledgerQuery(c *fiber.Ctx) (dto.LedgerQuery, error) {
	var q dto.LedgerQuery
	if err := c.QueryParser(&q); err != nil {
		return q, shared.NewBadRequestError("Invalid query")
	}
	if err := q.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return q, shared.NewAppError(http.StatusBadRequest, validationResp.Message, validationResp.Errors)
	}
	return q, nil
}

// @Summary Inspect threat records (Admin)
// @Description Show the ledger state for an ip, login and/or device and the action it maps to.
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param ip query string false "Client IP"
// @Param login query string false "Login identifier"
// @Param device query string false "Device ID"
// @Success 200 {object} shared.Response{data=dto.LedgerResponse}
// @Router /api/v1/admin/ledger [get]
func (h *AdminHandler) LedgerGet(c *fiber.Ctx) error {
	q, err := h.ledgerQuery(c)
	if err != nil {
		return err
	}

	resp, err := h.adminSvc.InspectLedger(c.UserContext(), q)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Reset threat records (Admin)
// @Description Clear failures, timed blocks and bans for an ip, login and/or device.
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param ip query string false "Client IP"
// @Param login query string false "Login identifier"
// @Param device query string false "Device ID"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/admin/ledger [delete]
func (h *AdminHandler) LedgerDelete(c *fiber.Ctx) error {
	q, err := h.ledgerQuery(c)
	if err != nil {
		return err
	}

	if err := h.adminSvc.ResetLedger(c.UserContext(), q); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Ledger reset", nil)
}

// @Summary Download log for a file (Admin)
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param code path string true "Share code"
// @Param limit query int false "Items to return" default(20)
// @Success 200 {object} shared.Response{data=[]model.DownloadLog}
// @Router /api/v1/admin/files/{code}/downloads [get]
func (h *AdminHandler) FileDownloads(c *fiber.Ctx) error {
	code, err := shareCode(c)
	if err != nil {
		return err
	}

	logs, err := h.adminSvc.FileDownloads(code, queryLimit(c))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", logs)
}

// @Summary Security events for an identifier (Admin)
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param identifier query string true "Hashed identifier, e.g. ip:<hash>"
// @Param since query string false "RFC 3339 lower bound, defaults to 24h ago"
// @Param limit query int false "Items to return" default(20)
// @Success 200 {object} shared.Response{data=[]model.SecurityEvent}
// @Router /api/v1/admin/security-events [get]
func (h *AdminHandler) SecurityEvents(c *fiber.Ctx) error {
	identifier := c.Query("identifier")
	if identifier == "" {
		return shared.ResponseJSON(c, http.StatusBadRequest, "identifier is required", nil)
	}

	since := time.Now().Add(-24 * time.Hour)
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return shared.ResponseJSON(c, http.StatusBadRequest, "since must be an RFC 3339 timestamp", nil)
		}
		since = parsed
	}

	events, err := h.adminSvc.SecurityEvents(identifier, since, queryLimit(c))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", events)
}
