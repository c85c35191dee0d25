package types

import (
	"errors"
	"fmt"
)

// Error code constants for agent-facing errors.
const (
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeMissingParameter = "MISSING_PARAMETER"
	ErrCodeInvalidParameter = "INVALID_PARAMETER"
	ErrCodeRemoteFailure    = "REMOTE_FAILURE"
)

// MCPError is the error taxonomy surfaced to AI agents. Code selects which of
// the remaining fields are meaningful.
type MCPError struct {
	Code      string `json:"code"`
	Message   string `json:"message,omitempty"`
	Tool      string `json:"tool,omitempty"`
	Param     string `json:"param,omitempty"`
	Detail    string `json:"detail,omitempty"`
	Remaining int    `json:"remaining,omitempty"`
}

func (e *MCPError) Error() string {
	switch e.Code {
	case ErrCodeRateLimited:
		return fmt.Sprintf("Rate limit exceeded. %d requests remaining in the current window.", e.Remaining)
	case ErrCodeMissingParameter:
		return fmt.Sprintf("Missing required parameter: %s", e.Param)
	case ErrCodeInvalidParameter:
		return fmt.Sprintf("Invalid parameter '%s': %s", e.Param, e.Detail)
	default:
		return e.Message
	}
}

// RateLimited reports that the client-side limiter rejected a call before any
// remote request was made.
func RateLimited(remaining int) *MCPError {
	return &MCPError{Code: ErrCodeRateLimited, Remaining: max(0, remaining)}
}

// MissingParameter reports a required argument that was absent or had the wrong primitive type.
func MissingParameter(name string) *MCPError {
	return &MCPError{Code: ErrCodeMissingParameter, Param: name}
}

// InvalidParameter reports an argument that was present but semantically invalid.
func InvalidParameter(name, detail string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParameter, Param: name, Detail: detail}
}

// RemoteFailure wraps a failure reported by the budgeting service.
func RemoteFailure(message string) *MCPError {
	return &MCPError{Code: ErrCodeRemoteFailure, Message: message}
}

// AsMCPError classifies err. Errors outside the taxonomy become RemoteFailure.
func AsMCPError(err error) *MCPError {
	if err == nil {
		return nil
	}
	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}
	return RemoteFailure(err.Error())
}

// Code returns the taxonomy code of err, or "" for nil.
func Code(err error) string {
	if e := AsMCPError(err); e != nil {
		return e.Code
	}
	return ""
}
