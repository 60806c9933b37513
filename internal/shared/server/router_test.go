package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"showdown-backend/internal/assets"
	"showdown-backend/internal/shared/config"
	"showdown-backend/internal/shared/storage/object/local"
)

func newTestRouter(t *testing.T, cfg config.Config) *gin.Engine {
	t.Helper()
	store := local.New(t.TempDir(), "http://localhost/assets")
	return NewRouter(RouterDeps{
		Config:       cfg,
		AssetHandler: assets.NewHandler(&assets.Service{Store: store}),
	})
}

func TestRouterUnknownRouteUsesEnvelope(t *testing.T) {
	r := newTestRouter(t, config.Config{})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error.Code != "not_found" {
		t.Fatalf("expected not_found, got %q", payload.Error.Code)
	}
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestRouterMountsHealthTwice(t *testing.T) {
	r := newTestRouter(t, config.Config{})

	for _, path := range []string{"/health", "/api/v1/health"} {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s expected 200, got %d", path, resp.Code)
		}
	}
}

func TestRouterRateLimitsUploads(t *testing.T) {
	r := newTestRouter(t, config.Config{UploadRatePerSec: 0.001, UploadRateBurst: 1})

	send := func(path string) int {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		if err := writer.Close(); err != nil {
			t.Fatalf("close writer: %v", err)
		}
		req := httptest.NewRequest(http.MethodPost, path, body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		return resp.Code
	}

	// The first request spends the only token and fails validation.
	if code := send("/upload_image"); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	// Both mounts share one bucket per client.
	if code := send("/api/v1/upload_image"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
}

func TestRouterRecoversFromPanics(t *testing.T) {
	r := newTestRouter(t, config.Config{})
	r.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
