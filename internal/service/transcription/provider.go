package transcription

import (
	"context"
	"time"
)

// InferenceOptions controls one recognition run over a full sample buffer
type InferenceOptions struct {
	SampleRate  int
	Language    string // "" or "auto" requests detection
	ChunkLength time.Duration
	Stride      time.Duration
}

// Chunk is a recognized span of speech with absolute start/end in seconds
type Chunk struct {
	Start float64
	End   float64
	Text  string
}

// Inference is the raw recognizer output before formatting
type Inference struct {
	Chunks   []Chunk
	Language string
}

// Model is a loaded speech-recognition model
type Model interface {
	Infer(ctx context.Context, samples []float32, opts InferenceOptions) (*Inference, error)
}

// Loader prepares a Model. It may be slow (model download, server warm-up).
type Loader func(ctx context.Context) (Model, error)

// ModelProvider loads a model lazily, at most once per process.
// Callers arriving during a load wait for it; a failed load is not cached and
// the next caller retries. Inference through the provided model is serialized.
type ModelProvider struct {
	load  Loader
	slot  chan struct{}
	infer chan struct{}
	model Model
}

// NewModelProvider creates a provider around load
func NewModelProvider(load Loader) *ModelProvider {
	return &ModelProvider{
		load:  load,
		slot:  make(chan struct{}, 1),
		infer: make(chan struct{}, 1),
	}
}

// Get returns the loaded model, loading it on first use
func (p *ModelProvider) Get(ctx context.Context) (Model, error) {
	select {
	case p.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-p.slot }()

	if p.model != nil {
		return p.model, nil
	}

	m, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	p.model = &serialModel{model: m, sem: p.infer}
	return p.model, nil
}

// serialModel admits one Infer call at a time
type serialModel struct {
	model Model
	sem   chan struct{}
}

func (s *serialModel) Infer(ctx context.Context, samples []float32, opts InferenceOptions) (*Inference, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.sem }()

	return s.model.Infer(ctx, samples, opts)
}
