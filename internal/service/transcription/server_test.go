package transcription

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/Taichi-iskw/xscribe/internal/errors"
	"github.com/Taichi-iskw/xscribe/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWhisperServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("POST /v1/audio/transcriptions", handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestServerBackend_TranscribeWindow(t *testing.T) {
	var gotForm map[string]string
	srv := newWhisperServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotForm = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			gotForm[k] = v[0]
		}
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "chunk.wav", header.Filename)

		json.NewEncoder(w).Encode(model.WhisperResult{
			Language: "english",
			Segments: []model.WhisperSegment{{Start: 0, End: 2, Text: " Hello"}},
		})
	})

	path := filepath.Join(t.TempDir(), "chunk.wav")
	require.NoError(t, writeWAV(path, make([]float32, 160), 16000))

	b := &serverBackend{baseURL: srv.URL, model: "base", client: srv.Client()}
	res, err := b.transcribeWindow(context.Background(), path, "en")
	require.NoError(t, err)

	assert.Equal(t, "base", gotForm["model"])
	assert.Equal(t, "verbose_json", gotForm["response_format"])
	assert.Equal(t, "segment", gotForm["timestamp_granularities[]"])
	assert.Equal(t, "en", gotForm["language"])
	require.Len(t, res.Segments, 1)
	assert.Equal(t, " Hello", res.Segments[0].Text)
}

func TestServerBackend_OmitsLanguageForDetection(t *testing.T) {
	var hasLanguage bool
	srv := newWhisperServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, hasLanguage = r.MultipartForm.Value["language"]
		w.Write([]byte(`{"text":"","segments":[]}`))
	})

	path := filepath.Join(t.TempDir(), "chunk.wav")
	require.NoError(t, writeWAV(path, make([]float32, 16), 16000))

	b := &serverBackend{baseURL: srv.URL, model: "base", client: srv.Client()}
	_, err := b.transcribeWindow(context.Background(), path, "")
	require.NoError(t, err)
	assert.False(t, hasLanguage)
}

func TestServerBackend_ErrorStatusKeepsBody(t *testing.T) {
	srv := newWhisperServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "CUDA out of memory", http.StatusInternalServerError)
	})

	path := filepath.Join(t.TempDir(), "chunk.wav")
	require.NoError(t, writeWAV(path, make([]float32, 16), 16000))

	b := &serverBackend{baseURL: srv.URL, model: "large", client: srv.Client()}
	_, err := b.transcribeWindow(context.Background(), path, "")
	require.Error(t, err)
	assert.Equal(t, errors.CodeExternal, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "out of memory")
}

func TestServerLoader(t *testing.T) {
	t.Run("reachable server yields a model", func(t *testing.T) {
		srv := newWhisperServer(t, func(w http.ResponseWriter, r *http.Request) {})
		m, err := NewServerLoader(srv.URL+"/", "base", t.TempDir(), srv.Client())(context.Background())
		require.NoError(t, err)
		assert.IsType(t, &chunkedModel{}, m)
	})

	t.Run("unreachable server fails", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewServerLoader(url, "base", t.TempDir(), nil)(context.Background())
		require.Error(t, err)
		assert.Equal(t, errors.CodeExternal, errors.CodeOf(err))
		assert.Contains(t, err.Error(), "not reachable")
	})
}

func TestNewLoader(t *testing.T) {
	for _, backend := range []string{"", BackendServer, BackendCLI} {
		l, err := NewLoader(BackendConfig{Backend: backend, ServerURL: "http://localhost:1"}, nil)
		require.NoError(t, err, backend)
		assert.NotNil(t, l)
	}

	_, err := NewLoader(BackendConfig{Backend: "gpu-cluster"}, nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidArg, errors.CodeOf(err))
}
