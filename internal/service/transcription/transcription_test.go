package transcription

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Taichi-iskw/xscribe/internal/errors"
	"github.com/Taichi-iskw/xscribe/internal/logger"
	"github.com/Taichi-iskw/xscribe/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newArtifact(t *testing.T, seconds int) *model.AudioArtifact {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.wav")
	require.NoError(t, writeWAV(path, make([]float32, seconds*100), 100))
	return &model.AudioArtifact{Path: path, SampleRate: 100, Channels: 1}
}

func providerFor(m Model) *ModelProvider {
	return NewModelProvider(func(context.Context) (Model, error) { return m, nil })
}

func TestTranscriber_Transcribe(t *testing.T) {
	var gotOpts InferenceOptions
	m := modelFunc(func(_ context.Context, samples []float32, opts InferenceOptions) (*Inference, error) {
		gotOpts = opts
		return &Inference{
			Language: "en",
			Chunks: []Chunk{
				{Start: 0, End: 2, Text: "  Hello world. "},
				{Start: 2, End: 3, Text: "   "},
				{Start: 75.5, End: 80, Text: "Second line"},
			},
		}, nil
	})

	audio := newArtifact(t, 2)
	tr := NewTranscriber(providerFor(m), time.Second, logger.Discard())

	res, err := tr.Transcribe(context.Background(), audio, "en", model.TimestampDetailed)
	require.NoError(t, err)

	assert.Equal(t, []model.TranscriptSegment{
		{Timestamp: "00:00:00.00", Text: "Hello world."},
		{Timestamp: "00:01:15.50", Text: "Second line"},
	}, res.Segments)
	assert.Equal(t, "en", res.Language)
	assert.Equal(t, 75.5, res.LastStart)

	assert.Equal(t, 100, gotOpts.SampleRate)
	assert.Equal(t, ChunkLength, gotOpts.ChunkLength)
	assert.Equal(t, Stride, gotOpts.Stride)
	assert.Equal(t, "en", gotOpts.Language)

	assert.NoFileExists(t, audio.Path)
}

func TestTranscriber_BlankChunksAreDropped(t *testing.T) {
	m := staticModel(&Inference{Chunks: []Chunk{
		{Start: 0, Text: "\n\t "},
		{Start: 3, Text: "  keep   inner  spacing "},
		{Start: 9, Text: ""},
		{Start: 12, Text: "   "},
	}})

	res, err := NewTranscriber(providerFor(m), time.Second, nil).
		Transcribe(context.Background(), newArtifact(t, 1), "auto", model.TimestampSeconds)
	require.NoError(t, err)

	assert.Equal(t, []model.TranscriptSegment{
		{Timestamp: "0:03", Text: "keep   inner  spacing"},
	}, res.Segments)
	assert.Equal(t, 3.0, res.LastStart)
}

func TestTranscriber_TimestampFormats(t *testing.T) {
	m := staticModel(&Inference{Chunks: []Chunk{{Start: 65, Text: "a"}}})

	for format, want := range map[model.TimestampFormat]string{
		model.TimestampNone:     "",
		model.TimestampSeconds:  "1:05",
		model.TimestampDetailed: "00:01:05.00",
	} {
		res, err := NewTranscriber(providerFor(m), time.Second, nil).
			Transcribe(context.Background(), newArtifact(t, 1), "auto", format)
		require.NoError(t, err)
		assert.Equal(t, want, res.Segments[0].Timestamp, format)
	}
}

func TestTranscriber_Language(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		detected  string
		want      string
	}{
		{name: "detected wins", requested: "auto", detected: "fr", want: "fr"},
		{name: "requested when not detected", requested: "de", want: "de"},
		{name: "auto when nothing known", requested: "auto", want: "auto"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := staticModel(&Inference{Language: tt.detected})
			res, err := NewTranscriber(providerFor(m), time.Second, nil).
				Transcribe(context.Background(), newArtifact(t, 1), tt.requested, model.TimestampNone)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Language)
			assert.Empty(t, res.Segments)
		})
	}
}

func TestTranscriber_Timeout(t *testing.T) {
	m := modelFunc(func(ctx context.Context, _ []float32, _ InferenceOptions) (*Inference, error) {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return nil, ctx.Err()
	})

	audio := newArtifact(t, 1)
	tr := NewTranscriber(providerFor(m), 30*time.Millisecond, nil)

	start := time.Now()
	_, err := tr.Transcribe(context.Background(), audio, "auto", model.TimestampSeconds)
	require.Error(t, err)
	assert.Equal(t, errors.CodeTranscriptionTimeout, errors.CodeOf(err))
	assert.Less(t, time.Since(start), time.Second)
	assert.NoFileExists(t, audio.Path)
}

func TestTranscriber_TimeoutIgnoresStuckModel(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	m := modelFunc(func(context.Context, []float32, InferenceOptions) (*Inference, error) {
		<-block
		return &Inference{}, nil
	})

	_, err := NewTranscriber(providerFor(m), 20*time.Millisecond, nil).
		Transcribe(context.Background(), newArtifact(t, 1), "auto", model.TimestampSeconds)
	assert.Equal(t, errors.CodeTranscriptionTimeout, errors.CodeOf(err))
}

func TestTranscriber_ParentCancellation(t *testing.T) {
	m := modelFunc(func(ctx context.Context, _ []float32, _ InferenceOptions) (*Inference, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewTranscriber(providerFor(m), time.Minute, nil).
		Transcribe(ctx, newArtifact(t, 1), "auto", model.TimestampSeconds)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, errors.CodeOf(err))
}

func TestTranscriber_ModelErrors(t *testing.T) {
	t.Run("plain error is wrapped", func(t *testing.T) {
		m := modelFunc(func(context.Context, []float32, InferenceOptions) (*Inference, error) {
			return nil, stderrors.New("CUDA out of memory")
		})
		audio := newArtifact(t, 1)
		_, err := NewTranscriber(providerFor(m), time.Second, nil).
			Transcribe(context.Background(), audio, "auto", model.TimestampSeconds)
		assert.Equal(t, errors.CodeExternal, errors.CodeOf(err))
		assert.Contains(t, err.Error(), "out of memory")
		assert.NoFileExists(t, audio.Path)
	})

	t.Run("app error passes through", func(t *testing.T) {
		m := modelFunc(func(context.Context, []float32, InferenceOptions) (*Inference, error) {
			return nil, errors.New(errors.CodeInvalidArg, "bad rate")
		})
		_, err := NewTranscriber(providerFor(m), time.Second, nil).
			Transcribe(context.Background(), newArtifact(t, 1), "auto", model.TimestampSeconds)
		assert.Equal(t, errors.CodeInvalidArg, errors.CodeOf(err))
	})

	t.Run("load failure", func(t *testing.T) {
		p := NewModelProvider(func(context.Context) (Model, error) {
			return nil, stderrors.New("no server")
		})
		audio := newArtifact(t, 1)
		_, err := NewTranscriber(p, time.Second, nil).
			Transcribe(context.Background(), audio, "auto", model.TimestampSeconds)
		assert.Equal(t, errors.CodeExternal, errors.CodeOf(err))
		assert.NoFileExists(t, audio.Path)
	})
}

func TestTranscriber_ArtifactAlreadyGone(t *testing.T) {
	audio := &model.AudioArtifact{Path: filepath.Join(t.TempDir(), "gone.wav")}
	_, err := NewTranscriber(providerFor(staticModel(&Inference{})), time.Second, nil).
		Transcribe(context.Background(), audio, "auto", model.TimestampSeconds)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInternal, errors.CodeOf(err))
	_, statErr := os.Stat(audio.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestTranscriber_NilArtifact(t *testing.T) {
	_, err := NewTranscriber(providerFor(staticModel(&Inference{})), time.Second, nil).
		Transcribe(context.Background(), nil, "auto", model.TimestampSeconds)
	assert.Equal(t, errors.CodeInvalidArg, errors.CodeOf(err))
}
