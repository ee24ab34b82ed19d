package constants

import "time"

// Request limits
const (
	// MaxUploadSize is the fallback image upload size in bytes (32MB)
	MaxUploadSize = 32 << 20

	// MaxCompareBodySize limits the JSON body of comparison requests (1MB)
	MaxCompareBodySize = 1 << 20
)

// Timeouts
const (
	// RequestTimeout is the deadline of a single hashing request
	RequestTimeout = 2 * time.Minute

	// ReadTimeout is the time allowed to read a request including its body
	ReadTimeout = 30 * time.Second

	// IdleTimeout is how long keep-alive connections stay open
	IdleTimeout = 60 * time.Second
)
