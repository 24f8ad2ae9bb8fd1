package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/sharegate/dto"
	"github.com/lac-hong-legacy/sharegate/shared"
)

type FileHandler struct {
	gatewaySvc GatewayServiceInterface
}

func NewFileHandler(gatewaySvc GatewayServiceInterface) *FileHandler {
	return &FileHandler{
		gatewaySvc: gatewaySvc,
	}
}

func shareCode(c *fiber.Ctx) (string, error) {
	code := c.Params("code")
	if code == "" || len(code) > 32 {
		return "", shared.NewBadRequestError("Invalid share code")
	}
	return code, nil
}

// @Summary Probe file
// @Description Phase 1 for a shared file: report whether access needs a challenge.
// @Tags files
// @Accept json
// @Produce json
// @Param code path string true "Share code"
// @Param probeRequest body dto.FileProbeRequest false "Optional challenge solution"
// @Success 200 {object} shared.Response{data=dto.GateResponse}
// @Failure 428 {object} shared.Response{data=dto.GateResponse}
// @Failure 423 {object} shared.Response{data=dto.GateResponse}
// @Router /api/v1/files/{code}/probe [post]
func (h *FileHandler) Probe(c *fiber.Ctx) error {
	code, err := shareCode(c)
	if err != nil {
		return err
	}

	var req dto.FileProbeRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		return validationFailed(c, err)
	}

	actor := h.gatewaySvc.Actor(shared.ClientIP(c), deviceID(c, req.DeviceID), "")

	result, err := h.gatewaySvc.ProbeFile(c.UserContext(), actor, code, req.ChallengeID, req.Solution)
	if err != nil {
		return err
	}

	return writeGate(c, result)
}

// @Summary Verify file password
// @Description Phase 2 for a password-protected file. Wrong passwords are delayed and count toward the file's lockout.
// @Tags files
// @Accept json
// @Produce json
// @Param code path string true "Share code"
// @Param passwordRequest body dto.FilePasswordRequest true "File password and optional challenge solution"
// @Success 200 {object} shared.Response{data=dto.AccessTokenResponse}
// @Failure 401 {object} shared.Response{data=dto.GateResponse}
// @Failure 423 {object} shared.Response{data=dto.GateResponse}
// @Router /api/v1/files/{code}/verify-password [post]
func (h *FileHandler) VerifyPassword(c *fiber.Ctx) error {
	code, err := shareCode(c)
	if err != nil {
		return err
	}

	var req dto.FilePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError("Invalid request body")
	}

	if err := req.Validate(); err != nil {
		return validationFailed(c, err)
	}

	actor := h.gatewaySvc.Actor(shared.ClientIP(c), deviceID(c, req.DeviceID), "")

	result, err := h.gatewaySvc.VerifyFilePassword(c.UserContext(), actor, code, req)
	if err != nil {
		return err
	}

	return writeGate(c, result)
}

// @Summary Initiate download
// @Description Phase 2 for a file without a password. Returns a single-use download token.
// @Tags files
// @Accept json
// @Produce json
// @Param code path string true "Share code"
// @Param initiateRequest body dto.InitiateDownloadRequest false "Optional challenge solution"
// @Success 200 {object} shared.Response{data=dto.AccessTokenResponse}
// @Failure 410 {object} shared.Response
// @Failure 428 {object} shared.Response{data=dto.GateResponse}
// @Router /api/v1/files/{code}/initiate-download [post]
func (h *FileHandler) InitiateDownload(c *fiber.Ctx) error {
	code, err := shareCode(c)
	if err != nil {
		return err
	}

	var req dto.InitiateDownloadRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		return validationFailed(c, err)
	}

	actor := h.gatewaySvc.Actor(shared.ClientIP(c), deviceID(c, req.DeviceID), "")

	result, err := h.gatewaySvc.InitiateDownload(c.UserContext(), actor, code, req.ChallengeID, req.Solution)
	if err != nil {
		return err
	}

	return writeGate(c, result)
}

// @Summary Download file
// @Description Redeem a download token for a short-lived presigned link.
// @Tags files
// @Produce json
// @Param code path string true "Share code"
// @Param token query string true "Download token"
// @Success 200 {object} shared.Response{data=dto.DownloadResponse}
// @Failure 403 {object} shared.Response
// @Failure 410 {object} shared.Response
// @Router /api/v1/files/{code}/download [get]
func (h *FileHandler) Download(c *fiber.Ctx) error {
	code, err := shareCode(c)
	if err != nil {
		return err
	}

	token := c.Query("token")
	if !dto.IsAccessToken(token) {
		return shared.NewForbiddenError("Invalid or expired token")
	}

	actor := h.gatewaySvc.Actor(shared.ClientIP(c), shared.DeviceID(c), "")

	resp, err := h.gatewaySvc.Download(c.UserContext(), actor, c.Get(fiber.HeaderUserAgent), code, token)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderCacheControl, "no-store")
	return shared.ResponseJSON(c, http.StatusOK, "Download ready", resp)
}
