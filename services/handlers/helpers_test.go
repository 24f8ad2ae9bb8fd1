package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/sharegate/dto"
)

func TestWriteGateSetsRetryAfter(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return writeGate(c, &dto.GateResult{
			Status:            http.StatusTooManyRequests,
			Message:           "Too many failed attempts",
			RetryAfterSeconds: 300,
			Body:              dto.GateResponse{Blocked: true, RetryAfterSeconds: 300},
		})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Retry-After"); got != "300" {
		t.Fatalf("Retry-After = %q", got)
	}
	if got := resp.Header.Get("Cache-Control"); got != "no-store" {
		t.Fatalf("Cache-Control = %q", got)
	}
}

func TestParseOptionalBody(t *testing.T) {
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		var req dto.FileProbeRequest
		if err := parseOptionalBody(c, &req); err != nil {
			return c.SendStatus(http.StatusBadRequest)
		}
		return c.SendString(req.DeviceID)
	})

	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty body", "", http.StatusOK},
		{"json body", `{"device_id":"d-1"}`, http.StatusOK},
		{"broken json", `{"device_id":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestDeviceIDPrefersBody(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(deviceID(c, c.Query("body")))
	})

	req := httptest.NewRequest(http.MethodGet, "/?body=from-body", nil)
	req.Header.Set("X-Device-ID", "from-header")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "from-body" {
		t.Fatalf("deviceID = %q", body)
	}
}
