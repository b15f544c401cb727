package transcript

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Taichi-iskw/xscribe/internal/config"
	"github.com/Taichi-iskw/xscribe/internal/logger"
	transcriptRepo "github.com/Taichi-iskw/xscribe/internal/repository/transcript"
	"github.com/Taichi-iskw/xscribe/internal/service/media"
	"github.com/Taichi-iskw/xscribe/internal/service/pipeline"
	"github.com/Taichi-iskw/xscribe/internal/service/transcription"
	"github.com/Taichi-iskw/xscribe/internal/service/twitter"
)

// FactoryOptions controls how CreateService wires the pipeline
type FactoryOptions struct {
	// DryRun skips the database entirely; transcripts are printed, never saved
	DryRun bool
	// Progress receives one line per progress event; nil disables progress output
	Progress io.Writer
	// NeedPipeline is false for read-only commands, which then skip model setup
	NeedPipeline bool
}

// ServiceFactory creates transcript service instances
type ServiceFactory struct{}

// NewServiceFactory creates a new service factory
func NewServiceFactory() *ServiceFactory {
	return &ServiceFactory{}
}

// CreateService creates a transcript service with all dependencies
func (f *ServiceFactory) CreateService(ctx context.Context, opts FactoryOptions) (Service, func(), error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel})

	cleanup := func() {}
	var repo transcriptRepo.Repository
	var store pipeline.Store
	if !opts.DryRun {
		dbPool, err := config.NewDatabasePool(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		repo = transcriptRepo.NewRepository(dbPool)
		store = repo
		cleanup = func() {
			config.CloseDatabasePool(dbPool)
		}
	}

	var runner Runner
	if opts.NeedPipeline {
		var publisher pipeline.Publisher
		if opts.Progress != nil {
			publisher = NewProgressPrinter(opts.Progress)
		}
		orchestrator, err := NewOrchestrator(cfg, store, publisher, log)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		runner = orchestrator
	}

	return NewService(runner, repo), cleanup, nil
}

// NewOrchestrator wires the X client, ffmpeg extractor and whisper model into a pipeline.
// A nil store disables persistence.
func NewOrchestrator(cfg *config.Config, store pipeline.Store, publisher pipeline.Publisher, log *logger.Logger) (*pipeline.Orchestrator, error) {
	httpClient := &http.Client{Timeout: 2 * time.Minute}

	client := twitter.NewClient(twitter.Config{
		BearerToken:     cfg.X.BearerToken,
		UserAccessToken: cfg.X.UserAccessToken,
		APIBaseURL:      cfg.X.APIBaseURL,
		HTTPClient:      httpClient,
		Cache:           twitter.NewLRUCache(cfg.X.CacheSize, cfg.X.CacheTTL),
	})

	extractor := media.NewExtractor(cfg.Media.FFmpegPath, cfg.Media.TempDir)

	loader, err := transcription.NewLoader(transcription.BackendConfig{
		Backend:   cfg.Whisper.Backend,
		Model:     cfg.Whisper.Model,
		ServerURL: cfg.Whisper.ServerURL,
		Binary:    cfg.Whisper.Binary,
		TempDir:   cfg.Media.TempDir,
	}, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to configure whisper: %w", err)
	}
	provider := transcription.NewModelProvider(loader)
	transcriber := transcription.NewTranscriber(provider, cfg.Pipeline.TranscriptionTimeout, log)

	return pipeline.New(client, extractor, transcriber, store, publisher, pipeline.Options{
		TotalTimeout: cfg.Pipeline.TotalTimeout,
		TickInterval: cfg.Pipeline.TickInterval,
	}, log), nil
}
