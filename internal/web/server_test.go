package web

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/imagehash/internal/config"
)

func newTestServer() *Server {
	return NewServer(config.Load(), 0, "127.0.0.1")
}

func TestRouter_Health(t *testing.T) {
	recorder := httptest.NewRecorder()

	newTestServer().Router().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type 'application/json', got '%s'", ct)
	}
}

func TestRouter_HashThenCompare(t *testing.T) {
	s := newTestServer()

	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for x := 0; x < 64; x++ {
		for y := 0; y < 64; y++ {
			if y < 32 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	var body bytes.Buffer
	if err := png.Encode(&body, img); err != nil {
		t.Fatalf("failed to encode PNG: %v", err)
	}

	recorder := httptest.NewRecorder()
	s.Router().ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/v1/hash/ahash", &body))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var hashed struct {
		Hash string `json:"hash"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &hashed); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if hashed.Hash != "ffffffff00000000" {
		t.Fatalf("expected hash 'ffffffff00000000', got '%s'", hashed.Hash)
	}

	recorder = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/compare",
		strings.NewReader(`{"algorithm":"ahash","a":"`+hashed.Hash+`","b":"f0f0f0f0f0f0f0f0"}`))
	s.Router().ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var cmp struct {
		Distance float64 `json:"distance"`
		Similar  bool    `json:"similar"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &cmp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if cmp.Distance != 32 || cmp.Similar {
		t.Errorf("expected distance 32 and not similar, got %+v", cmp)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/api/v1/unknown", http.StatusNotFound},
		{http.MethodGet, "/api/v1/compare", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/v1/hash/sha256", http.StatusNotFound},
	}

	s := newTestServer()
	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			s.Router().ServeHTTP(recorder, httptest.NewRequest(tc.method, tc.path, strings.NewReader("")))
			if recorder.Code != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, recorder.Code)
			}
		})
	}
}
