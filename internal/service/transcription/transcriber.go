package transcription

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Taichi-iskw/xscribe/internal/errors"
	"github.com/Taichi-iskw/xscribe/internal/logger"
	"github.com/Taichi-iskw/xscribe/internal/model"
)

const (
	DefaultTimeout = 60 * time.Second
	ChunkLength    = 15 * time.Second
	Stride         = 3 * time.Second
)

// Transcriber turns an extracted audio artifact into formatted transcript segments
type Transcriber interface {
	// Transcribe always deletes the artifact file before returning, on every path.
	Transcribe(ctx context.Context, audio *model.AudioArtifact, language string, format model.TimestampFormat) (*model.TranscriptionResult, error)
}

type transcriber struct {
	provider *ModelProvider
	timeout  time.Duration
	log      *logger.Logger
}

// NewTranscriber creates a Transcriber. A zero timeout means DefaultTimeout.
func NewTranscriber(provider *ModelProvider, timeout time.Duration, log *logger.Logger) Transcriber {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.Discard()
	}
	return &transcriber{provider: provider, timeout: timeout, log: log}
}

func (t *transcriber) Transcribe(ctx context.Context, audio *model.AudioArtifact, language string, format model.TimestampFormat) (*model.TranscriptionResult, error) {
	if audio == nil || audio.Path == "" {
		return nil, errors.New(errors.CodeInvalidArg, "audio artifact is required")
	}
	defer t.removeArtifact(audio.Path)

	m, err := t.provider.Get(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(err, errors.CodeExternal, "failed to load speech recognition model")
	}

	samples, rate, err := decodeWAV(audio.Path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to read extracted audio")
	}

	inf, err := t.infer(ctx, m, samples, InferenceOptions{
		SampleRate:  rate,
		Language:    language,
		ChunkLength: ChunkLength,
		Stride:      Stride,
	})
	if err != nil {
		return nil, err
	}

	return buildResult(inf, language, format), nil
}

// infer races the model against the transcription deadline. On timeout the
// model call is abandoned; cancelling its context stops backend work.
func (t *transcriber) infer(parent context.Context, m Model, samples []float32, opts InferenceOptions) (*Inference, error) {
	ctx, cancel := context.WithTimeout(parent, t.timeout)
	defer cancel()

	type outcome struct {
		inf *Inference
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		inf, err := m.Infer(ctx, samples, opts)
		done <- outcome{inf: inf, err: err}
	}()

	select {
	case out := <-done:
		if out.err == nil {
			return out.inf, nil
		}
		if parent.Err() != nil {
			return nil, parent.Err()
		}
		if ctx.Err() == context.DeadlineExceeded {
			return nil, t.timeoutError()
		}
		if errors.CodeOf(out.err) != "" {
			return nil, out.err
		}
		return nil, errors.Wrap(out.err, errors.CodeExternal, "speech recognition failed")
	case <-ctx.Done():
		if parent.Err() != nil {
			return nil, parent.Err()
		}
		return nil, t.timeoutError()
	}
}

func (t *transcriber) timeoutError() error {
	return errors.New(errors.CodeTranscriptionTimeout, fmt.Sprintf("transcription exceeded %s", t.timeout))
}

// removeArtifact tolerates a file that is already gone
func (t *transcriber) removeArtifact(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		t.log.With("path", path).WithError(err).Warn("failed to remove audio artifact")
	}
}

func buildResult(inf *Inference, language string, format model.TimestampFormat) *model.TranscriptionResult {
	result := &model.TranscriptionResult{
		Segments: make([]model.TranscriptSegment, 0, len(inf.Chunks)),
		Language: inf.Language,
	}
	if result.Language == "" {
		result.Language = normalizeLanguage(language)
	}
	if result.Language == "" {
		result.Language = "auto"
	}

	for _, c := range inf.Chunks {
		text := strings.TrimSpace(c.Text)
		// whisper emits whitespace-only chunks for silence; they carry no text and do not move LastStart
		if text == "" {
			continue
		}
		result.Segments = append(result.Segments, model.TranscriptSegment{
			Timestamp: FormatTimestamp(c.Start, format),
			Text:      text,
		})
		result.LastStart = c.Start
	}
	return result
}
