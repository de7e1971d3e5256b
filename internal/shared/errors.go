package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Capture and image errors
	ErrCaptureFailed    = fmt.Errorf("capture failed")
	ErrNoFrame          = fmt.Errorf("no frame available")
	ErrUndecodableFrame = fmt.Errorf("frame could not be decoded")

	// Decoder errors
	ErrDecodeFailed   = fmt.Errorf("barcode scanning failed")
	ErrUnknownDecoder = fmt.Errorf("unknown decoder engine")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Persistence errors
	ErrHistoryDisabled = fmt.Errorf("scan history is disabled")
	ErrScanNotFound    = fmt.Errorf("scan not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
