package utils

import "time"

// Application Constants
const (
	AppName    = "ride-lifecycle"
	AppVersion = "1.0.0"

	// Authentication
	JWTAccessTokenTTL = 24 * time.Hour
	BearerPrefix      = "Bearer "

	// Request context keys
	ContextUserIDKey    = "user_id"
	ContextRequestIDKey = "request_id"

	HeaderRequestID = "X-Request-ID"
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrInvalidToken     = "invalid token"
	ErrInternalServer   = "internal server error"
	ErrUnauthorized     = "unauthorized"
	ErrValidationFailed = "validation failed"
)
