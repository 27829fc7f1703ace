package services

import "errors"

// Dashboard service errors
var (
	// Source errors
	ErrNoClimateData = errors.New("no climate data available")
	ErrNoQuoteData   = errors.New("no quote data available")

	// Dataset errors
	ErrDatasetEmpty    = errors.New("merged dataset is empty")
	ErrDatasetNotFound = errors.New("dataset not found")

	// Export errors
	ErrInvalidFormat = errors.New("invalid export format")
	ErrExportFailed  = errors.New("export failed")

	// General errors
	ErrInvalidInput       = errors.New("invalid input")
	ErrOperationTimeout   = errors.New("operation timed out")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)
