package integration

import (
	"net/http"
	"testing"
)

func TestServiceAuth(t *testing.T) {
	app := setupApp(t)

	t.Run("missing token", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/funds", "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/funds", "", "not-a-jwt")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("valid service token", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/funds", "", serviceToken(t))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
		}
	})
}
