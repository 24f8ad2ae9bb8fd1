package shared

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"forwarded first hop", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "198.51.100.4"},
		{"cloudflare", map[string]string{"CF-Connecting-IP": "192.0.2.9"}, "192.0.2.9"},
		{"forwarded wins over real ip", map[string]string{"X-Forwarded-For": "203.0.113.7", "X-Real-IP": "198.51.100.4"}, "203.0.113.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			var got string
			app.Get("/", func(c *fiber.Ctx) error {
				got = ClientIP(c)
				return nil
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if _, err := app.Test(req); err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeviceID(t *testing.T) {
	app := fiber.New()
	var got string
	app.Get("/", func(c *fiber.Ctx) error {
		got = DeviceID(c)
		return nil
	})

	req := httptest.NewRequest(http.MethodGet, "/?device_id=from-query", nil)
	req.Header.Set("X-Device-ID", "from-header")
	if _, err := app.Test(req); err != nil {
		t.Fatal(err)
	}
	if got != "from-header" {
		t.Fatalf("expected header to win, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/?device_id=from-query", nil)
	if _, err := app.Test(req); err != nil {
		t.Fatal(err)
	}
	if got != "from-query" {
		t.Fatalf("expected query fallback, got %q", got)
	}
}
