package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/sharegate/dto"
	"github.com/lac-hong-legacy/sharegate/shared"
)

// parseOptionalBody accepts an empty body; phase 1 probes often send none.
func parseOptionalBody(c *fiber.Ctx, out interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return shared.NewBadRequestError("Invalid request body")
	}
	return nil
}

func validationFailed(c *fiber.Ctx, err error) error {
	validationResp := dto.CreateValidationErrorResponse(err)
	return shared.ResponseJSON(c, fiber.StatusBadRequest, validationResp.Message, validationResp.Errors)
}

func deviceID(c *fiber.Ctx, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	return shared.DeviceID(c)
}

func writeGate(c *fiber.Ctx, result *dto.GateResult) error {
	c.Set(fiber.HeaderCacheControl, "no-store")
	if result.RetryAfterSeconds > 0 {
		c.Set(fiber.HeaderRetryAfter, strconv.FormatInt(result.RetryAfterSeconds, 10))
	}
	return shared.ResponseJSON(c, result.Status, result.Message, result.Body)
}
