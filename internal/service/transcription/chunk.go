package transcription

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Taichi-iskw/xscribe/internal/errors"
	"github.com/Taichi-iskw/xscribe/internal/model"
)

// window is a slice of the sample buffer submitted to the recognizer in one call.
// Only segments starting inside [keepFrom, keepTo) are kept, so that the
// stride overlap shared with neighbouring windows is emitted exactly once.
type window struct {
	start, end       int
	keepFrom, keepTo int
}

// planWindows splits n samples into windows of chunk samples overlapping by
// stride on each side. The first window keeps its leading edge and the last
// keeps its trailing edge.
func planWindows(n, chunk, stride int) []window {
	if n <= 0 || chunk <= 0 {
		return nil
	}
	step := chunk - 2*stride
	if stride < 0 || step <= 0 {
		step, stride = chunk, 0
	}

	var windows []window
	for start := 0; ; start += step {
		end := min(start+chunk, n)
		w := window{start: start, end: end, keepFrom: start + stride, keepTo: end - stride}
		if start == 0 {
			w.keepFrom = 0
		}
		if end == n {
			w.keepTo = n
		}
		windows = append(windows, w)
		if end == n {
			return windows
		}
	}
}

// windowBackend transcribes a single WAV window. Segment times are relative to the window.
type windowBackend interface {
	transcribeWindow(ctx context.Context, wavPath, language string) (*model.WhisperResult, error)
}

// chunkedModel runs long audio through a backend one window at a time and
// stitches the segments back onto the original timeline
type chunkedModel struct {
	backend windowBackend
	tempDir string
}

func (m *chunkedModel) Infer(ctx context.Context, samples []float32, opts InferenceOptions) (*Inference, error) {
	rate := opts.SampleRate
	if rate <= 0 {
		return nil, errors.New(errors.CodeInvalidArg, "sample rate must be positive")
	}
	chunk := int(opts.ChunkLength.Seconds() * float64(rate))
	stride := int(opts.Stride.Seconds() * float64(rate))
	language := normalizeLanguage(opts.Language)

	inf := &Inference{Language: language}
	windows := planWindows(len(samples), chunk, stride)
	if len(windows) == 0 {
		return inf, nil
	}

	dir, err := os.MkdirTemp(m.tempDir, "xscribe-chunks-*")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to create chunk directory")
	}
	defer os.RemoveAll(dir)

	for i, w := range windows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(dir, fmt.Sprintf("chunk-%03d.wav", i))
		if err := writeWAV(path, samples[w.start:w.end], rate); err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "failed to write audio chunk")
		}

		res, err := m.backend.transcribeWindow(ctx, path, language)
		os.Remove(path)
		if err != nil {
			return nil, err
		}

		if inf.Language == "" && res.Language != "" {
			inf.Language = strings.ToLower(res.Language)
		}

		offset := float64(w.start) / float64(rate)
		from := float64(w.keepFrom) / float64(rate)
		to := float64(w.keepTo) / float64(rate)
		for _, seg := range res.Segments {
			start := seg.Start + offset
			if start < from || start >= to {
				continue
			}
			inf.Chunks = append(inf.Chunks, Chunk{Start: start, End: seg.End + offset, Text: seg.Text})
		}
	}

	return inf, nil
}

// normalizeLanguage maps the auto-detect sentinel to ""
func normalizeLanguage(language string) string {
	language = strings.TrimSpace(strings.ToLower(language))
	if language == "auto" {
		return ""
	}
	return language
}
