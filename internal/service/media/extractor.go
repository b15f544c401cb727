package media

import (
	"context"
	"os"
	"strings"

	"github.com/Taichi-iskw/xscribe/internal/errors"
	"github.com/Taichi-iskw/xscribe/internal/model"
	"github.com/Taichi-iskw/xscribe/internal/service/common"
)

const (
	SampleRate = 16000
	Channels   = 1
)

// Extractor converts video bytes into a transient mono 16kHz PCM WAV file
type Extractor interface {
	ExtractAudio(ctx context.Context, video []byte) (*model.AudioArtifact, error)
}

// ffmpegExtractor implements Extractor with the ffmpeg CLI
type ffmpegExtractor struct {
	cmdRunner  common.CmdRunner
	ffmpegPath string
	tempDir    string
}

// NewExtractor creates an Extractor with the default CmdRunner
func NewExtractor(ffmpegPath, tempDir string) Extractor {
	return NewExtractorWithCmdRunner(common.NewCmdRunner(), ffmpegPath, tempDir)
}

// NewExtractorWithCmdRunner creates an Extractor with custom CmdRunner (for testing)
func NewExtractorWithCmdRunner(cmdRunner common.CmdRunner, ffmpegPath, tempDir string) Extractor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &ffmpegExtractor{
		cmdRunner:  cmdRunner,
		ffmpegPath: ffmpegPath,
		tempDir:    tempDir,
	}
}

// ExtractAudio writes video to a temp file, transcodes it and removes the video file.
// On success the caller owns the returned artifact and must remove it.
func (e *ffmpegExtractor) ExtractAudio(ctx context.Context, video []byte) (*model.AudioArtifact, error) {
	if len(video) == 0 {
		return nil, errors.New(errors.CodeExtractionFailed, "video is empty")
	}

	videoFile, err := os.CreateTemp(e.tempDir, "xscribe-video-*.mp4")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to create temp video file")
	}
	videoPath := videoFile.Name()
	// ffmpeg has exited by the time this runs
	defer os.Remove(videoPath)

	if _, err := videoFile.Write(video); err != nil {
		videoFile.Close()
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to write temp video file")
	}
	if err := videoFile.Close(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to write temp video file")
	}

	audioPath := strings.TrimSuffix(videoPath, ".mp4") + ".wav"
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", videoPath,
		"-vn",                  // no video track
		"-acodec", "pcm_s16le", // 16-bit little-endian PCM
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		audioPath,
	}

	if _, err := e.cmdRunner.Run(ctx, e.ffmpegPath, args...); err != nil {
		os.Remove(audioPath)
		return nil, errors.Wrap(err, errors.CodeExtractionFailed, formatFFmpegError(err))
	}

	if info, err := os.Stat(audioPath); err != nil || info.Size() == 0 {
		os.Remove(audioPath)
		return nil, errors.New(errors.CodeExtractionFailed, "ffmpeg produced no audio (does the video have an audio track?)")
	}

	return &model.AudioArtifact{
		Path:       audioPath,
		SampleRate: SampleRate,
		Channels:   Channels,
	}, nil
}

// formatFFmpegError provides user-friendly error messages for ffmpeg failures
func formatFFmpegError(err error) string {
	errMsg := err.Error()

	switch {
	case strings.Contains(errMsg, "executable file not found"):
		return "ffmpeg is not installed or not found in PATH"
	case strings.Contains(errMsg, "does not contain any stream"),
		strings.Contains(errMsg, "Output file #0 does not contain any stream"):
		return "video has no audio track"
	case strings.Contains(errMsg, "Invalid data found when processing input"):
		return "video data is corrupt or in an unsupported format"
	default:
		return "audio extraction failed - " + errMsg
	}
}
