package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
)

func TestOpenAPISpecIsValid(t *testing.T) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openAPISpec)
	if err != nil {
		t.Fatalf("embedded spec does not parse: %v", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		t.Fatalf("embedded spec is invalid: %v", err)
	}
}

func TestOpenAPISpecCoversRoutes(t *testing.T) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openAPISpec)
	if err != nil {
		t.Fatalf("embedded spec does not parse: %v", err)
	}
	for _, path := range []string{
		"/v1/generate",
		"/v1/videos/generate",
		"/v1/images/generate",
		"/v1/videos",
		"/v1/videos/{id}/status",
		"/v1/videos/{id}/refresh",
		"/v1/videos/{id}",
		"/v1/images",
		"/v1/images/{id}/status",
		"/v1/images/{id}/refresh",
		"/v1/images/{id}",
		"/v1/jobs/{id}/assets",
		"/v1/jobs/{id}/assets/zip",
		"/v1/assets/{id}/download",
		"/v1/stats/summary",
		"/v1/healthz",
	} {
		if doc.Paths.Find(path) == nil {
			t.Errorf("spec is missing path %s", path)
		}
	}
}

func TestOpenAPIEndpoints(t *testing.T) {
	f := newTestApp(t)

	rr := httptest.NewRecorder()
	f.app.OpenAPIJSON(rr, httptest.NewRequest(http.MethodGet, "/v1/openapi.json", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("openapi.json status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("openapi.json content type = %q", ct)
	}

	rr = httptest.NewRecorder()
	f.app.OpenAPIDocs(rr, httptest.NewRequest(http.MethodGet, "/v1/docs", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("docs status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "redoc") {
		t.Fatal("docs page should embed the redoc viewer")
	}
}
