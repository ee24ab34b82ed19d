package config

import (
	_ "embed"
	"os"
	"strconv"

	"github.com/kozaktomas/imagehash/internal/fingerprint"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Hash     HashConfig   `yaml:"hash"`
	Crop     CropConfig   `yaml:"crop"`
	Match    MatchConfig  `yaml:"match"`
	Server   ServerConfig `yaml:"server"`
	Workers  int          `yaml:"workers"`   // parallel hashing workers, 0 for every CPU
	LogLevel string       `yaml:"log_level"` // logrus level name
}

type HashConfig struct {
	Size           int    `yaml:"size"`
	HighFreqFactor int    `yaml:"high_freq_factor"`
	WaveletMode    string `yaml:"wavelet_mode"` // haar or db4
	BinBits        int    `yaml:"bin_bits"`
}

type CropConfig struct {
	SegmentThreshold float64 `yaml:"segment_threshold"`
	MinSegmentSize   int     `yaml:"min_segment_size"`
	SegmentationSize int     `yaml:"segmentation_size"`
	LimitSegments    int     `yaml:"limit_segments"`
}

type MatchConfig struct {
	BitErrorRate        float64 `yaml:"bit_error_rate"`
	HammingCutoff       int     `yaml:"hamming_cutoff"`
	Exact               bool    `yaml:"exact"`
	SimilarityThreshold int     `yaml:"similarity_threshold"` // max distance for "similar" verdicts
}

type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxUploadMB    int    `yaml:"max_upload_mb"`
	AllowedOrigins string `yaml:"allowed_origins"` // comma-separated, "*" for any
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envBool reads a boolean in any form strconv.ParseBool accepts.
func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

// envFloat is envInt for positive floating point values.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// Load returns the embedded defaults overridden by the environment.
func Load() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	cfg.Hash.Size = envInt("IMAGEHASH_SIZE", cfg.Hash.Size)
	cfg.Hash.HighFreqFactor = envInt("IMAGEHASH_HIGH_FREQ_FACTOR", cfg.Hash.HighFreqFactor)
	cfg.Hash.WaveletMode = envString("IMAGEHASH_WAVELET_MODE", cfg.Hash.WaveletMode)
	cfg.Hash.BinBits = envInt("IMAGEHASH_BIN_BITS", cfg.Hash.BinBits)

	cfg.Crop.SegmentThreshold = envFloat("IMAGEHASH_SEGMENT_THRESHOLD", cfg.Crop.SegmentThreshold)
	cfg.Crop.MinSegmentSize = envInt("IMAGEHASH_MIN_SEGMENT_SIZE", cfg.Crop.MinSegmentSize)
	cfg.Crop.SegmentationSize = envInt("IMAGEHASH_SEGMENTATION_SIZE", cfg.Crop.SegmentationSize)
	cfg.Crop.LimitSegments = envInt("IMAGEHASH_LIMIT_SEGMENTS", cfg.Crop.LimitSegments)

	cfg.Match.BitErrorRate = envFloat("IMAGEHASH_BIT_ERROR_RATE", cfg.Match.BitErrorRate)
	cfg.Match.HammingCutoff = envInt("IMAGEHASH_HAMMING_CUTOFF", cfg.Match.HammingCutoff)
	cfg.Match.Exact = envBool("IMAGEHASH_EXACT_MATCH", cfg.Match.Exact)
	cfg.Match.SimilarityThreshold = envInt("IMAGEHASH_SIMILARITY_THRESHOLD", cfg.Match.SimilarityThreshold)

	cfg.Server.Host = envString("WEB_HOST", cfg.Server.Host)
	cfg.Server.Port = envInt("WEB_PORT", cfg.Server.Port)
	cfg.Server.MaxUploadMB = envInt("WEB_MAX_UPLOAD_MB", cfg.Server.MaxUploadMB)
	cfg.Server.AllowedOrigins = envString("WEB_ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)

	cfg.Workers = envInt("IMAGEHASH_WORKERS", cfg.Workers)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)

	return &cfg
}

// Validate checks the parameters that the hash options cannot check on their
// own until an image is hashed.
func (c *Config) Validate() error {
	switch {
	case c.Hash.Size < 2:
		return &fingerprint.ConfigurationError{Param: "hash.size", Reason: "must be at least 2"}
	case c.Hash.HighFreqFactor < 1:
		return &fingerprint.ConfigurationError{Param: "hash.high_freq_factor", Reason: "must be at least 1"}
	case c.Hash.WaveletMode != "haar" && c.Hash.WaveletMode != "db4":
		return &fingerprint.ConfigurationError{Param: "hash.wavelet_mode", Reason: "must be haar or db4"}
	case c.Hash.BinBits < 1:
		return &fingerprint.ConfigurationError{Param: "hash.bin_bits", Reason: "must be at least 1"}
	case c.Crop.SegmentThreshold < 0 || c.Crop.SegmentThreshold > 255:
		return &fingerprint.ConfigurationError{Param: "crop.segment_threshold", Reason: "must be within [0, 255]"}
	case c.Crop.MinSegmentSize < 0:
		return &fingerprint.ConfigurationError{Param: "crop.min_segment_size", Reason: "must not be negative"}
	case c.Crop.SegmentationSize < 1:
		return &fingerprint.ConfigurationError{Param: "crop.segmentation_size", Reason: "must be positive"}
	case c.Crop.LimitSegments < 0:
		return &fingerprint.ConfigurationError{Param: "crop.limit_segments", Reason: "must not be negative"}
	case c.Match.BitErrorRate < 0 || c.Match.BitErrorRate > 1:
		return &fingerprint.ConfigurationError{Param: "match.bit_error_rate", Reason: "must be within [0, 1]"}
	case c.Match.HammingCutoff < 0:
		return &fingerprint.ConfigurationError{Param: "match.hamming_cutoff", Reason: "must not be negative"}
	case c.Server.Port < 1 || c.Server.Port > 65535:
		return &fingerprint.ConfigurationError{Param: "server.port", Reason: "must be a valid TCP port"}
	}
	return nil
}

// Options builds the options of every algorithm from the configuration.
func (c *Config) Options() fingerprint.Options {
	return fingerprint.Options{
		Average:    fingerprint.AverageOptions{Size: c.Hash.Size},
		Difference: fingerprint.DifferenceOptions{Size: c.Hash.Size},
		Perceptual: fingerprint.PerceptualOptions{Size: c.Hash.Size, HighFreqFactor: c.Hash.HighFreqFactor},
		Wavelet:    fingerprint.WaveletOptions{Size: c.Hash.Size, Mode: c.Hash.WaveletMode},
		Color:      fingerprint.ColorOptions{BinBits: c.Hash.BinBits},
		Crop: fingerprint.CropOptions{
			SegmentThreshold: c.Crop.SegmentThreshold,
			MinSegmentSize:   c.Crop.MinSegmentSize,
			SegmentationSize: c.Crop.SegmentationSize,
			LimitSegments:    c.Crop.LimitSegments,
		},
		Match: fingerprint.MatchOptions{
			BitErrorRate:  c.Match.BitErrorRate,
			HammingCutoff: c.Match.HammingCutoff,
			Exact:         c.Match.Exact,
		},
	}
}

// MaxUploadBytes returns the request body limit of the HTTP API.
func (c *ServerConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}
