package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/Taichi-iskw/xscribe/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		timedOut bool
		wantCode string
		wantMsg  string
	}{
		{
			name:     "outer timeout wins over inner code",
			err:      errors.New(errors.CodeTranscriptionTimeout, "inner"),
			timedOut: true,
			wantCode: errors.CodeTimeout,
			wantMsg:  errors.UserMessage(errors.CodeTimeout),
		},
		{
			name:     "outer timeout with context error",
			err:      context.DeadlineExceeded,
			timedOut: true,
			wantCode: errors.CodeTimeout,
		},
		{
			name:     "transcription timeout nested",
			err:      errors.Wrap(errors.New(errors.CodeTranscriptionTimeout, "60s"), errors.CodeExternal, "stage"),
			wantCode: errors.CodeTranscriptionTimeout,
		},
		{
			name:     "oom by message",
			err:      stderrors.New("java.lang.OutOfMemoryError: heap"),
			wantCode: errors.CodeOutOfMemory,
		},
		{
			name:     "oom by errno",
			err:      fmt.Errorf("fork: %w", syscall.ENOMEM),
			wantCode: errors.CodeOutOfMemory,
		},
		{
			name:     "oom wins over download code",
			err:      errors.New(errors.CodeDownloadFailed, "cannot allocate memory"),
			wantCode: errors.CodeOutOfMemory,
		},
		{
			name:     "taxonomy code under wrapper",
			err:      errors.Wrap(errors.New(errors.CodeRateLimited, "429"), errors.CodeExternal, "x api"),
			wantCode: errors.CodeRateLimited,
			wantMsg:  errors.UserMessage(errors.CodeRateLimited),
		},
		{
			name:     "unknown app error keeps its message",
			err:      errors.New(errors.CodeInternal, "failed to create transcript"),
			wantCode: errors.CodeUnknown,
			wantMsg:  "failed to create transcript",
		},
		{
			name:     "unknown plain error verbatim",
			err:      stderrors.New("segfault in decoder"),
			wantCode: errors.CodeUnknown,
			wantMsg:  "segfault in decoder",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err, tt.timedOut)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.ErrorIs(t, got, tt.err)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, got.Message)
			}
			assert.NotEmpty(t, got.Message)
		})
	}
}
