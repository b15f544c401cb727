package pipeline

import (
	stderrors "errors"
	"strings"
	"syscall"

	"github.com/Taichi-iskw/xscribe/internal/errors"
)

var oomMarkers = []string{
	"out of memory",
	"cannot allocate memory",
	"OutOfMemoryError",
}

// classify maps any stage failure onto the pipeline taxonomy. The returned
// error's Message is what users see; the original failure is kept as Cause.
func classify(err error, timedOut bool) *errors.AppError {
	code := classifyCode(err, timedOut)
	msg := errors.UserMessage(code)
	if msg == "" {
		msg = rawMessage(err)
	}
	return errors.Wrap(err, code, msg)
}

func classifyCode(err error, timedOut bool) string {
	switch {
	case timedOut:
		return errors.CodeTimeout
	case errors.Is(err, errors.CodeTranscriptionTimeout):
		return errors.CodeTranscriptionTimeout
	case isOutOfMemory(err):
		return errors.CodeOutOfMemory
	}
	if code := taxonomyCode(err); code != "" {
		return code
	}
	return errors.CodeUnknown
}

// taxonomyCode returns the first code in the AppError chain that has a user message
func taxonomyCode(err error) string {
	for err != nil {
		var appErr *errors.AppError
		if !stderrors.As(err, &appErr) {
			return ""
		}
		if errors.UserMessage(appErr.Code) != "" {
			return appErr.Code
		}
		err = appErr.Cause
	}
	return ""
}

func isOutOfMemory(err error) bool {
	if stderrors.Is(err, syscall.ENOMEM) {
		return true
	}
	msg := err.Error()
	for _, marker := range oomMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func rawMessage(err error) string {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}
