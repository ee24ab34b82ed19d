package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kozaktomas/imagehash/internal/config"
	"github.com/kozaktomas/imagehash/internal/constants"
	"github.com/kozaktomas/imagehash/internal/fingerprint"
)

// CompareHandler compares textual fingerprints.
type CompareHandler struct {
	config *config.Config
}

// NewCompareHandler creates a new compare handler.
func NewCompareHandler(cfg *config.Config) *CompareHandler {
	return &CompareHandler{config: cfg}
}

// CompareRequest represents a comparison request.
type CompareRequest struct {
	Algorithm string `json:"algorithm"`
	A         string `json:"a"`
	B         string `json:"b"`
	BinBits   int    `json:"binbits,omitempty"`
}

// CompareResponse is the comparison together with the similarity verdict.
type CompareResponse struct {
	*fingerprint.Comparison
	Similar bool `json:"similar"`
}

// Compare handles POST /api/v1/compare.
func (h *CompareHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, constants.MaxCompareBodySize)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	alg, err := fingerprint.ParseAlgorithm(req.Algorithm)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	if req.A == "" || req.B == "" {
		respondError(w, http.StatusBadRequest, "both fingerprints a and b are required")
		return
	}

	opts := h.config.Options()
	if req.BinBits != 0 {
		opts.Color.BinBits = req.BinBits
	}

	cmp, err := fingerprint.CompareHex(alg, req.A, req.B, opts)
	if err != nil {
		respondFailure(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, CompareResponse{
		Comparison: cmp,
		Similar:    cmp.Similar(h.similarityThreshold(), constants.DefaultRegionCutoff),
	})
}

func (h *CompareHandler) similarityThreshold() int {
	if t := h.config.Match.SimilarityThreshold; t > 0 {
		return t
	}
	return constants.DefaultSimilarityThreshold
}
