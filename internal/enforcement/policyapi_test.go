package enforcement

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"ai-compliance-gateway/internal/logger"
	"ai-compliance-gateway/internal/policy"
)

func TestPolicyAPI_Get(t *testing.T) {
	engine := policy.NewEngine(policy.DefaultPolicy())
	api := NewPolicyAPI(engine, "", logger.New("TEST", "error"))

	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/v1/policy", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	var meta policyMetadata
	if err := json.Unmarshal(rec.Body.Bytes(), &meta); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if meta.Name != "default" {
		t.Errorf("got name %q, want default", meta.Name)
	}
}

func TestPolicyAPI_ReloadPicksUpNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte("version: \"3\"\nname: reloaded-policy\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	engine := policy.NewEngine(policy.DefaultPolicy())
	api := NewPolicyAPI(engine, path, logger.New("TEST", "error"))

	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodPost, "/v1/policy/reload", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	if engine.Current().Name != "reloaded-policy" {
		t.Errorf("got %q, want reloaded-policy", engine.Current().Name)
	}
}
