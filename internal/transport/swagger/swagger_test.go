package swagger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
)

func TestOpenAPISpecIsValid(t *testing.T) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromFile("../../../api/openapi.yml")
	if err != nil {
		t.Fatalf("failed to load openapi spec: %v", err)
	}

	if err := doc.Validate(loader.Context); err != nil {
		t.Fatalf("openapi spec is invalid: %v", err)
	}

	for _, path := range []string{
		"/permits",
		"/permits/{permitID}",
		"/permits/{permitID}/approve",
		"/permits/{permitID}/qr",
		"/shops",
		"/memos",
		"/reports/dashboard",
	} {
		if doc.Paths.Find(path) == nil {
			t.Errorf("expected path %s in openapi spec", path)
		}
	}
}

func TestSwaggerUIServes(t *testing.T) {
	handler := Handler()

	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from swagger UI, got %d", rec.Code)
	}
}
