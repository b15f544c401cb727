package transcription

import (
	"fmt"
	"net/http"

	"github.com/Taichi-iskw/xscribe/internal/errors"
)

// Backend names accepted by NewLoader
const (
	BackendServer = "server"
	BackendCLI    = "cli"
)

// BackendConfig selects and configures a recognizer backend
type BackendConfig struct {
	Backend   string
	Model     string
	ServerURL string
	Binary    string
	TempDir   string
}

// NewLoader builds the Loader for the configured backend
func NewLoader(cfg BackendConfig, client *http.Client) (Loader, error) {
	switch cfg.Backend {
	case BackendServer, "":
		return NewServerLoader(cfg.ServerURL, cfg.Model, cfg.TempDir, client), nil
	case BackendCLI:
		return NewCLILoader(cfg.Binary, cfg.Model, cfg.TempDir), nil
	default:
		return nil, errors.New(errors.CodeInvalidArg, fmt.Sprintf("unknown whisper backend %q (expected server or cli)", cfg.Backend))
	}
}
