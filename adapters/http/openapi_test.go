package http_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	apihttp "github.com/artpar/bandgate/adapters/http"
)

func TestOpenAPI_WellKnownEndpoint(t *testing.T) {
	b := jsonBackend(t, 200, `{}`)
	router := setupRouter(t, b.server.URL, apihttp.RouterConfig{EnableOpenAPI: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/.well-known/openapi.json", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s, want application/json", ct)
	}

	var doc struct {
		Swagger string                     `json:"swagger"`
		Paths   map[string]json.RawMessage `json:"paths"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&doc); err != nil {
		t.Fatalf("document is not JSON: %v", err)
	}
	if doc.Swagger != "2.0" {
		t.Errorf("swagger = %q, want 2.0", doc.Swagger)
	}
	if _, ok := doc.Paths["/api/{path}"]; !ok {
		t.Error("proxy path missing from document")
	}
}

func TestOpenAPI_SwaggerUIEndpoint(t *testing.T) {
	b := jsonBackend(t, 200, `{}`)
	router := setupRouter(t, b.server.URL, apihttp.RouterConfig{EnableOpenAPI: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/swagger/index.html", nil))

	if rec.Code != 200 {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestOpenAPI_Disabled(t *testing.T) {
	b := jsonBackend(t, 200, `{}`)
	router := setupRouter(t, b.server.URL, apihttp.RouterConfig{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/.well-known/openapi.json", nil))

	if rec.Code != 404 {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if b.hits.Load() != 0 {
		t.Error("non-/api path reached the upstream")
	}
}

func TestVersion_Response(t *testing.T) {
	tests := []struct {
		version string
		want    string
	}{
		{"", "dev"},
		{"1.2.3", "1.2.3"},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		apihttp.VersionHandler(tt.version)(rec, httptest.NewRequest("GET", "/version", nil))

		var body apihttp.VersionResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if body.Service != "bandgate" {
			t.Errorf("service = %s, want bandgate", body.Service)
		}
		if body.Version != tt.want {
			t.Errorf("version = %s, want %s", body.Version, tt.want)
		}
	}
}
