package transcript

import (
	"context"

	"github.com/Taichi-iskw/xscribe/internal/errors"
	"github.com/Taichi-iskw/xscribe/internal/model"
	transcriptRepo "github.com/Taichi-iskw/xscribe/internal/repository/transcript"
	"github.com/Taichi-iskw/xscribe/internal/service/pipeline"
)

// Service is what the transcript commands operate on
type Service interface {
	Create(ctx context.Context, req pipeline.Request) (*model.Transcript, error)
	Get(ctx context.Context, id int64) (*model.Transcript, error)
	List(ctx context.Context, limit int) ([]*model.Transcript, error)
	Delete(ctx context.Context, id int64) error
}

// Runner executes one pipeline run; *pipeline.Orchestrator implements it
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*model.Transcript, error)
}

type transcriptService struct {
	runner Runner
	repo   transcriptRepo.Repository
}

// NewService combines a pipeline runner with the transcript repository.
// repo may be nil for dry runs; stored-transcript operations then fail.
func NewService(runner Runner, repo transcriptRepo.Repository) Service {
	return &transcriptService{runner: runner, repo: repo}
}

func (s *transcriptService) Create(ctx context.Context, req pipeline.Request) (*model.Transcript, error) {
	if s.runner == nil {
		return nil, errors.New(errors.CodeInternal, "pipeline is not configured")
	}
	return s.runner.Run(ctx, req)
}

func (s *transcriptService) Get(ctx context.Context, id int64) (*model.Transcript, error) {
	if s.repo == nil {
		return nil, errNoDatabase
	}
	return s.repo.GetByID(ctx, id)
}

func (s *transcriptService) List(ctx context.Context, limit int) ([]*model.Transcript, error) {
	if s.repo == nil {
		return nil, errNoDatabase
	}
	return s.repo.ListRecent(ctx, transcriptRepo.NormalizeLimit(limit))
}

func (s *transcriptService) Delete(ctx context.Context, id int64) error {
	if s.repo == nil {
		return errNoDatabase
	}
	return s.repo.Delete(ctx, id)
}

var errNoDatabase = errors.New(errors.CodeInternal, "database is not available in dry-run mode")
