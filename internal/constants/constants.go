// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Processing constants
const (
	// WorkerPoolSize caps the number of parallel hashing workers when the
	// configuration leaves the worker count at zero
	WorkerPoolSize = 20

	// ProgressBarMinFiles is the smallest batch that gets a progress bar
	ProgressBarMinFiles = 2
)

// Comparison constants
const (
	// DefaultSimilarityThreshold is the largest Hamming distance between two
	// 64-bit fingerprints still reported as similar
	DefaultSimilarityThreshold = 10

	// DefaultRegionCutoff is the number of matching segments two
	// crop-resistant fingerprints need to count as the same image
	DefaultRegionCutoff = 1

	// DefaultDuplicateCandidates is the number of nearest fingerprints
	// checked for each image when grouping duplicates
	DefaultDuplicateCandidates = 20
)

// Crop report constants
const (
	// DefaultCropSteps is the number of progressively tighter crops in a report
	DefaultCropSteps = 5

	// CropStepFraction is the share of each side removed per crop step
	CropStepFraction = 0.04
)

// Server constants
const (
	// ShutdownTimeout bounds the graceful shutdown of the HTTP server
	ShutdownTimeout = 30 * time.Second
)
