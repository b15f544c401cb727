package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Taichi-iskw/xscribe/internal/errors"
	"github.com/Taichi-iskw/xscribe/internal/model"
)

// serverBackend talks to an OpenAI-compatible /v1/audio/transcriptions endpoint
// (faster-whisper-server, LocalAI, whisper.cpp server with the OpenAI shim)
type serverBackend struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewServerLoader returns a Loader that checks the server is reachable and
// returns a model backed by it
func NewServerLoader(baseURL, modelName, tempDir string, client *http.Client) Loader {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	b := &serverBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   modelName,
		client:  client,
	}
	return func(ctx context.Context) (Model, error) {
		if err := b.probe(ctx); err != nil {
			return nil, err
		}
		return &chunkedModel{backend: b, tempDir: tempDir}, nil
	}
}

// probe only requires the server to answer; some implementations do not serve /v1/models
func (b *serverBackend) probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/v1/models", nil)
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidArg, fmt.Sprintf("invalid whisper server URL: %s", b.baseURL))
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.CodeExternal, fmt.Sprintf("whisper server is not reachable at %s", b.baseURL))
	}
	resp.Body.Close()
	return nil
}

func (b *serverBackend) transcribeWindow(ctx context.Context, wavPath, language string) (*model.WhisperResult, error) {
	f, err := os.Open(wavPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to open audio chunk")
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fields := [][2]string{
		{"model", b.model},
		{"response_format", "verbose_json"},
		{"timestamp_granularities[]", "segment"},
		{"temperature", "0"},
	}
	if language != "" {
		fields = append(fields, [2]string{"language", language})
	}
	for _, kv := range fields {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "failed to build transcription request")
		}
	}

	fw, err := mw.CreateFormFile("file", filepath.Base(wavPath))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to build transcription request")
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to build transcription request")
	}
	if err := mw.Close(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to build transcription request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/v1/audio/transcriptions", &body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to build transcription request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeExternal, "whisper server request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errors.New(errors.CodeExternal,
			fmt.Sprintf("whisper server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))))
	}

	var result model.WhisperResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, errors.CodeExternal, "failed to parse whisper server response")
	}
	return &result, nil
}
