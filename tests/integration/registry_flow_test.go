package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestRegistryFlow(t *testing.T) {
	app := setupApp(t)
	token := serviceToken(t)

	rec := app.request("POST", "/api/v1/funds",
		`{"name":"Emerging Growth Fund","registration_number":"IN/AIF/000042","currency":"INR"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("fund registration failed: %d %s", rec.Code, rec.Body.String())
	}
	fund := parseJSON(t, rec)
	if fund["name"] != "Emerging Growth Fund" {
		t.Errorf("unexpected fund name %v", fund["name"])
	}

	rec = app.request("POST", "/api/v1/issuers",
		`{"name":"Acme Industries","cin":"U12345MH2010PLC000001","sector":"Manufacturing"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("issuer registration failed: %d %s", rec.Code, rec.Body.String())
	}
	issuerID := parseJSON(t, rec)["id"].(float64)

	rec = app.request("POST", fmt.Sprintf("/api/v1/issuers/%.0f/share-classes", issuerID),
		`{"name":"Equity Class A","face_value":"10"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("share class registration failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("GET", fmt.Sprintf("/api/v1/issuers/%.0f/share-classes", issuerID), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("list share classes failed: %d %s", rec.Code, rec.Body.String())
	}
	if total := parseJSON(t, rec)["total_items"].(float64); total != 1 {
		t.Errorf("expected 1 share class, got %.0f", total)
	}
}

func TestRegistryValidation(t *testing.T) {
	app := setupApp(t)
	token := serviceToken(t)

	t.Run("fund without a name", func(t *testing.T) {
		rec := app.request("POST", "/api/v1/funds",
			`{"registration_number":"IN/AIF/000001"}`, token)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("share class for a missing issuer", func(t *testing.T) {
		rec := app.request("POST", "/api/v1/issuers/999999/share-classes",
			`{"name":"Equity","face_value":"10"}`, token)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("share class with a non-positive face value", func(t *testing.T) {
		rec := app.request("POST", "/api/v1/issuers/1/share-classes",
			`{"name":"Equity","face_value":"0"}`, token)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d %s", rec.Code, rec.Body.String())
		}
	})
}
