package handlers

import (
	"bytes"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/imagehash/internal/fingerprint"
)

func hashRequest(t *testing.T, algorithm, query string, body []byte) *http.Request {
	t.Helper()
	path := "/api/v1/hash/" + algorithm
	if query != "" {
		path += "?" + query
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	return requestWithChiParams(req, map[string]string{"algorithm": algorithm})
}

func TestHashHandler_AverageHash(t *testing.T) {
	handler := NewHashHandler(testConfig())
	recorder := httptest.NewRecorder()

	handler.Hash(recorder, hashRequest(t, "ahash", "", encodePNG(t, createLeftWhiteImage(64))))

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, "application/json")

	var result fingerprint.Result
	parseJSONResponse(t, recorder, &result)
	if result.Algorithm != fingerprint.AlgorithmAverage {
		t.Errorf("expected algorithm 'ahash', got '%s'", result.Algorithm)
	}
	if result.Hash != "f0f0f0f0f0f0f0f0" {
		t.Errorf("expected hash 'f0f0f0f0f0f0f0f0', got '%s'", result.Hash)
	}
	if result.Rows != 8 || result.Cols != 8 {
		t.Errorf("expected an 8x8 grid, got %dx%d", result.Rows, result.Cols)
	}
}

func TestHashHandler_SizeQuery(t *testing.T) {
	handler := NewHashHandler(testConfig())
	recorder := httptest.NewRecorder()

	handler.Hash(recorder, hashRequest(t, "ahash", "size=4", encodePNG(t, createLeftWhiteImage(64))))

	assertStatusCode(t, recorder, http.StatusOK)
	var result fingerprint.Result
	parseJSONResponse(t, recorder, &result)
	if result.Hash != "cccc" {
		t.Errorf("expected hash 'cccc', got '%s'", result.Hash)
	}
}

func TestHashHandler_ColorBinBits(t *testing.T) {
	handler := NewHashHandler(testConfig())
	recorder := httptest.NewRecorder()

	img := createSolidImage(32, color.RGBA{255, 0, 0, 255})
	handler.Hash(recorder, hashRequest(t, "colorhash", "binbits=4", encodePNG(t, img)))

	assertStatusCode(t, recorder, http.StatusOK)
	var result fingerprint.Result
	parseJSONResponse(t, recorder, &result)
	if result.Rows != 14 || result.Cols != 4 {
		t.Errorf("expected 14 values of 4 bits, got %dx%d", result.Rows, result.Cols)
	}
	if len(result.Hash) != 14 {
		t.Errorf("expected 14 hex digits, got %q", result.Hash)
	}
}

func TestHashHandler_CropResistant(t *testing.T) {
	handler := NewHashHandler(testConfig())
	recorder := httptest.NewRecorder()

	handler.Hash(recorder, hashRequest(t, "crop-resistant", "", encodePNG(t, createLeftWhiteImage(128))))

	assertStatusCode(t, recorder, http.StatusOK)
	var result fingerprint.Result
	parseJSONResponse(t, recorder, &result)
	if result.Algorithm != fingerprint.AlgorithmCropResistant {
		t.Errorf("expected algorithm 'crop-resistant', got '%s'", result.Algorithm)
	}
	if _, err := fingerprint.MultiFromHex(result.Hash); err != nil {
		t.Errorf("response hash does not parse: %v", err)
	}
}

func TestHashHandler_Errors(t *testing.T) {
	png := func(t *testing.T) []byte { return encodePNG(t, createLeftWhiteImage(64)) }

	tests := []struct {
		name      string
		algorithm string
		query     string
		body      func(t *testing.T) []byte
		status    int
	}{
		{"unknown algorithm", "md5", "", png, http.StatusNotFound},
		{"non-numeric size", "ahash", "size=big", png, http.StatusBadRequest},
		{"size too small", "ahash", "size=1", png, http.StatusBadRequest},
		{"non-numeric binbits", "colorhash", "binbits=x", png, http.StatusBadRequest},
		{"binbits out of range", "colorhash", "binbits=17", png, http.StatusBadRequest},
		{"not an image", "ahash", "", func(*testing.T) []byte { return []byte("definitely not an image") }, http.StatusUnsupportedMediaType},
		{"image too small for whash", "whash", "size=128", png, http.StatusUnprocessableEntity},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewHashHandler(testConfig())
			recorder := httptest.NewRecorder()

			handler.Hash(recorder, hashRequest(t, tc.algorithm, tc.query, tc.body(t)))

			assertStatusCode(t, recorder, tc.status)
		})
	}
}
