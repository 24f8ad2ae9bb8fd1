package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/sharegate/dto"
	"github.com/lac-hong-legacy/sharegate/shared"
)

type AuthHandler struct {
	gatewaySvc GatewayServiceInterface
}

func NewAuthHandler(gatewaySvc GatewayServiceInterface) *AuthHandler {
	return &AuthHandler{
		gatewaySvc: gatewaySvc,
	}
}

// @Summary Probe login
// @Description Phase 1: report whether a login attempt needs a challenge. A solved challenge grants a one-time clearance.
// @Tags auth
// @Accept json
// @Produce json
// @Param probeRequest body dto.LoginProbeRequest true "Login identifier and optional challenge solution"
// @Success 200 {object} shared.Response{data=dto.GateResponse}
// @Failure 428 {object} shared.Response{data=dto.GateResponse}
// @Failure 429 {object} shared.Response{data=dto.GateResponse}
// @Router /api/v1/auth/probe [post]
func (h *AuthHandler) Probe(c *fiber.Ctx) error {
	var req dto.LoginProbeRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError("Invalid request body")
	}

	if err := req.Validate(); err != nil {
		return validationFailed(c, err)
	}

	actor := h.gatewaySvc.Actor(shared.ClientIP(c), deviceID(c, req.DeviceID), req.Login)

	result, err := h.gatewaySvc.ProbeLogin(c.UserContext(), actor, req.ChallengeID, req.Solution)
	if err != nil {
		return err
	}

	return writeGate(c, result)
}

// @Summary Login
// @Description Phase 2: check the password, with a challenge solution when one is required. Success returns a single-use login token.
// @Tags auth
// @Accept json
// @Produce json
// @Param loginRequest body dto.LoginRequest true "Login credentials"
// @Success 200 {object} shared.Response{data=dto.AccessTokenResponse}
// @Failure 401 {object} shared.Response{data=dto.GateResponse}
// @Failure 403 {object} shared.Response{data=dto.GateResponse}
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError("Invalid request body")
	}

	if err := req.Validate(); err != nil {
		return validationFailed(c, err)
	}

	actor := h.gatewaySvc.Actor(shared.ClientIP(c), deviceID(c, req.DeviceID), req.Login)

	result, err := h.gatewaySvc.Login(c.UserContext(), actor, req)
	if err != nil {
		return err
	}

	return writeGate(c, result)
}

// @Summary Create session
// @Description Redeem a login token for a session JWT. The token must come from the address it was issued to.
// @Tags auth
// @Accept json
// @Produce json
// @Param sessionRequest body dto.SessionRequest true "Login token"
// @Success 200 {object} shared.Response{data=dto.TokenPair}
// @Failure 403 {object} shared.Response
// @Router /api/v1/auth/session [post]
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	var req dto.SessionRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError("Invalid request body")
	}

	if err := req.Validate(); err != nil {
		return validationFailed(c, err)
	}

	actor := h.gatewaySvc.Actor(shared.ClientIP(c), shared.DeviceID(c), "")

	pair, err := h.gatewaySvc.Session(c.UserContext(), actor, req.Token)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderCacheControl, "no-store")
	return shared.ResponseJSON(c, http.StatusOK, "Session created", pair)
}
