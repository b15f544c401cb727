package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/Taichi-iskw/xscribe/internal/errors"
	"github.com/Taichi-iskw/xscribe/internal/model"
	"github.com/Taichi-iskw/xscribe/internal/service/common"
)

// lookPath is replaced in tests
var lookPath = exec.LookPath

// cliBackend runs the openai-whisper CLI once per window
type cliBackend struct {
	cmdRunner common.CmdRunner
	binary    string
	model     string
}

// NewCLILoader returns a Loader backed by the whisper CLI with the default CmdRunner
func NewCLILoader(binary, modelName, tempDir string) Loader {
	return NewCLILoaderWithCmdRunner(common.NewCmdRunner(), binary, modelName, tempDir)
}

// NewCLILoaderWithCmdRunner returns a Loader backed by the whisper CLI with custom CmdRunner (for testing)
func NewCLILoaderWithCmdRunner(cmdRunner common.CmdRunner, binary, modelName, tempDir string) Loader {
	if binary == "" {
		binary = "whisper"
	}
	b := &cliBackend{cmdRunner: cmdRunner, binary: binary, model: modelName}
	return func(ctx context.Context) (Model, error) {
		if _, err := lookPath(binary); err != nil {
			return nil, errors.Wrap(err, errors.CodeExternal, "Whisper is not installed. Please install OpenAI Whisper: pip install openai-whisper")
		}
		return &chunkedModel{backend: b, tempDir: tempDir}, nil
	}
}

func (b *cliBackend) transcribeWindow(ctx context.Context, wavPath, language string) (*model.WhisperResult, error) {
	outputDir := filepath.Dir(wavPath)

	args := []string{
		wavPath,
		"--model", b.model,
		"--output_format", "json",
		"--output_dir", outputDir,
		"--temperature", "0",
		"--verbose", "False",
	}

	// Add language parameter only if not auto-detection
	if language != "" {
		args = append(args, "--language", language)
	}

	if _, err := b.cmdRunner.Run(ctx, b.binary, args...); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(err, errors.CodeExternal, b.formatWhisperError(err, language))
	}

	baseName := strings.TrimSuffix(filepath.Base(wavPath), filepath.Ext(wavPath))
	jsonPath := filepath.Join(outputDir, baseName+".json")
	defer os.Remove(jsonPath)

	jsonData, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to read whisper output")
	}

	var result model.WhisperResult
	if err := json.Unmarshal(jsonData, &result); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to parse whisper output")
	}

	return &result, nil
}

// formatWhisperError provides user-friendly error messages for Whisper failures.
// Memory failures keep the original wording so the pipeline can classify them.
func (b *cliBackend) formatWhisperError(err error, language string) string {
	errMsg := err.Error()

	switch {
	case strings.Contains(errMsg, "No module named"):
		return "Whisper dependencies missing. Please reinstall: pip install --upgrade openai-whisper"
	case strings.Contains(errMsg, "OutOfMemoryError") || strings.Contains(errMsg, "out of memory"):
		return fmt.Sprintf("out of memory running model '%s'. Try using a smaller model (tiny, base, small)", b.model)
	case strings.Contains(errMsg, "Invalid language") || strings.Contains(errMsg, "Unsupported language"):
		return fmt.Sprintf("unsupported language '%s'. Use language codes like 'en', 'ja', 'es' or 'auto'", language)
	case strings.Contains(errMsg, "Invalid model") || strings.Contains(errMsg, "invalid choice"):
		return fmt.Sprintf("unsupported model '%s'. Available models: tiny, base, small, medium, large", b.model)
	case strings.Contains(errMsg, "Could not load model"):
		return fmt.Sprintf("failed to load Whisper model '%s'. The model may need to be downloaded on first use", b.model)
	default:
		return fmt.Sprintf("transcription failed with model '%s'", b.model)
	}
}
