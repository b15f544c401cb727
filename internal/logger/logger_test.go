package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOptions_JSONOutsideLocal(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOptions(Options{Environment: "production", Level: "debug", Output: &buf})

	log.With("run_id", "r-1").WithError(errors.New("boom")).Debug("stage failed")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "stage failed", line["msg"])
	assert.Equal(t, "r-1", line["run_id"])
	assert.Equal(t, "boom", line["error"])
	assert.Equal(t, "debug", line["level"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, parseLevel("debug"))
	assert.Equal(t, logrus.WarnLevel, parseLevel("warn"))
	assert.Equal(t, logrus.ErrorLevel, parseLevel("error"))
	assert.Equal(t, logrus.InfoLevel, parseLevel(""))
	assert.Equal(t, logrus.InfoLevel, parseLevel("verbose"))
}

func TestWithRequest_UsesHeaderRequestID(t *testing.T) {
	log := Discard()
	req := httptest.NewRequest("POST", "/api/transcribe", nil)
	req.Header.Set("X-Request-ID", "abc-123")

	entry := log.WithRequest(req)
	assert.Equal(t, "abc-123", entry.Data["req_id"])
	assert.Equal(t, "/api/transcribe", entry.Data["path"])

	req.Header.Del("X-Request-ID")
	entry = log.WithRequest(req)
	assert.NotEmpty(t, entry.Data["req_id"])
}

func TestWithError_Nil(t *testing.T) {
	log := Discard()
	assert.Same(t, log.Entry, log.WithError(nil))
}
