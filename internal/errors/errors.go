package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is an application-specific error type
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// wraps an error with a code and message
func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// CodeOf returns the code of the outermost AppError in err's chain, or "" if there is none
func CodeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Is reports whether any AppError in err's chain carries the given code
func Is(err error, code string) bool {
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// Error code constants
const (
	CodeInternal   = "INTERNAL_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeInvalidArg = "INVALID_ARGUMENT"
	CodeExternal   = "EXTERNAL_ERROR"
	CodeConflict   = "CONFLICT"         // Resource already exists (UNIQUE violation)
	CodeDependency = "DEPENDENCY_ERROR" // Foreign key constraint violation
)

// Pipeline failure taxonomy. Each code maps to exactly one user-facing message.
const (
	CodeInvalidInput         = "INVALID_INPUT"
	CodeNoCredentials        = "NO_CREDENTIALS"
	CodePostNotFound         = "POST_NOT_FOUND"
	CodeNoVideoFound         = "NO_VIDEO_FOUND"
	CodeRateLimited          = "RATE_LIMITED"
	CodeDownloadFailed       = "DOWNLOAD_FAILED"
	CodeExtractionFailed     = "EXTRACTION_FAILED"
	CodeTranscriptionTimeout = "TRANSCRIPTION_TIMEOUT"
	CodeTimeout              = "TIMEOUT"
	CodeOutOfMemory          = "OUT_OF_MEMORY"
	CodeUnknown              = "UNKNOWN"
)

var userMessages = map[string]string{
	CodeInvalidInput:         "Invalid X post URL. Use a link like https://x.com/user/status/1234567890",
	CodeNoCredentials:        "X API credentials are missing or invalid",
	CodePostNotFound:         "Post not found. It may have been deleted or is not publicly accessible",
	CodeNoVideoFound:         "This post does not contain a video",
	CodeRateLimited:          "X API rate limit exceeded. Please try again later",
	CodeDownloadFailed:       "Failed to download the video",
	CodeExtractionFailed:     "Failed to extract audio from the video",
	CodeTranscriptionTimeout: "Transcription took too long. Try a shorter video",
	CodeTimeout:              "Processing timed out. Try a shorter video",
	CodeOutOfMemory:          "The server ran out of memory while processing this video",
}

// UserMessage returns the fixed user-facing message for a taxonomy code.
// Unknown codes yield an empty string; callers pass the raw message through instead.
func UserMessage(code string) string {
	return userMessages[code]
}
