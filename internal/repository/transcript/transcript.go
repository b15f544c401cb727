package transcript

import (
	"context"

	"github.com/Taichi-iskw/xscribe/internal/model"
)

// Repository defines operations for Transcript persistence
type Repository interface {
	Create(ctx context.Context, transcript *model.Transcript) error
	GetByID(ctx context.Context, id int64) (*model.Transcript, error)
	// ListRecent returns up to limit transcripts, newest first
	ListRecent(ctx context.Context, limit int) ([]*model.Transcript, error)
	// Delete returns a NOT_FOUND AppError when no transcript has the given id
	Delete(ctx context.Context, id int64) error
}

const (
	DefaultListLimit = 10
	MaxListLimit     = 100
)

// NormalizeLimit clamps a requested listing size into [1, MaxListLimit]
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
