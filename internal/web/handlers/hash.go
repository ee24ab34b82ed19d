package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/imagehash/internal/config"
	"github.com/kozaktomas/imagehash/internal/constants"
	"github.com/kozaktomas/imagehash/internal/fingerprint"
	"github.com/kozaktomas/imagehash/internal/imageio"
	log "github.com/sirupsen/logrus"
)

// HashHandler fingerprints uploaded images.
type HashHandler struct {
	config *config.Config
}

// NewHashHandler creates a new hash handler.
func NewHashHandler(cfg *config.Config) *HashHandler {
	return &HashHandler{config: cfg}
}

// uploadLimit returns the request body limit in bytes.
func (h *HashHandler) uploadLimit() int64 {
	if n := h.config.Server.MaxUploadBytes(); n > 0 {
		return n
	}
	return constants.MaxUploadSize
}

// hashOptions applies the size and binbits query parameters to the configured
// options.
func (h *HashHandler) hashOptions(r *http.Request) (fingerprint.Options, error) {
	opts := h.config.Options()

	if s := r.URL.Query().Get("size"); s != "" {
		size, err := strconv.Atoi(s)
		if err != nil {
			return opts, &fingerprint.ConfigurationError{Param: "size", Reason: "must be an integer"}
		}
		opts.Average.Size = size
		opts.Difference.Size = size
		opts.Perceptual.Size = size
		opts.Wavelet.Size = size
	}
	if s := r.URL.Query().Get("binbits"); s != "" {
		binBits, err := strconv.Atoi(s)
		if err != nil {
			return opts, &fingerprint.ConfigurationError{Param: "binbits", Reason: "must be an integer"}
		}
		opts.Color.BinBits = binBits
	}
	return opts, nil
}

// Hash handles POST /api/v1/hash/{algorithm}. The body is the raw image.
func (h *HashHandler) Hash(w http.ResponseWriter, r *http.Request) {
	alg, err := fingerprint.ParseAlgorithm(chi.URLParam(r, "algorithm"))
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	opts, err := h.hashOptions(r)
	if err != nil {
		respondFailure(w, r, err)
		return
	}

	img, err := imageio.Decode(http.MaxBytesReader(w, r.Body, h.uploadLimit()))
	if err != nil {
		respondFailure(w, r, err)
		return
	}

	result, err := fingerprint.Compute(img, alg, opts)
	if err != nil {
		respondFailure(w, r, err)
		return
	}

	log.WithFields(log.Fields{
		"algorithm": alg,
		"hash":      result.Hash,
	}).Debug("hashed upload")
	respondJSON(w, http.StatusOK, result)
}
