package core

// Error codes
const (
	ErrNotInitialized    = "ENGINE_NOT_INITIALIZED"
	ErrInvalidFEN        = "INVALID_FEN"
	ErrInvalidRequest    = "INVALID_REQUEST"
	ErrInvalidContent    = "INVALID_CONTENT_TYPE"
	ErrRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrNotFound          = "NOT_FOUND"
	ErrStorageDisabled   = "STORAGE_DISABLED"
	ErrInternalError     = "INTERNAL_ERROR"
)
