package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	apperrors "github.com/Taichi-iskw/xscribe/internal/errors"
	"github.com/Taichi-iskw/xscribe/internal/model"
	"github.com/Taichi-iskw/xscribe/internal/repository/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Pool interface for abstracting pgx connection pool
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// transcriptRepository implements Repository using PostgreSQL
type transcriptRepository struct {
	pool Pool
}

// NewRepository creates a new instance of Repository
func NewRepository(pool Pool) Repository {
	return &transcriptRepository{
		pool: pool,
	}
}

const selectColumns = `id, source_url, video_title, username, duration, language, timestamp_format, segments, created_at`

// Create inserts a transcript and populates its ID and CreatedAt
func (r *transcriptRepository) Create(ctx context.Context, transcript *model.Transcript) error {
	segments := transcript.Segments
	if segments == nil {
		segments = []model.TranscriptSegment{}
	}
	segmentsJSON, err := json.Marshal(segments)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to encode transcript segments")
	}

	sql := `INSERT INTO transcripts
		(source_url, video_title, username, duration, language, timestamp_format, segments)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err = r.pool.QueryRow(ctx, sql,
		transcript.SourceURL,
		transcript.VideoTitle,
		transcript.Username,
		transcript.Duration,
		transcript.Language,
		string(transcript.TimestampFormat),
		segmentsJSON,
	).Scan(&transcript.ID, &transcript.CreatedAt)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to create transcript")
	}
	return nil
}

// GetByID retrieves a transcript by its ID
func (r *transcriptRepository) GetByID(ctx context.Context, id int64) (*model.Transcript, error) {
	sql := `SELECT ` + selectColumns + ` FROM transcripts WHERE id = $1`

	transcript, err := scanTranscript(r.pool.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Wrap(err, apperrors.CodeNotFound, "transcript "+strconv.FormatInt(id, 10)+" not found")
		}
		return nil, common.HandlePostgreSQLError(err, "failed to get transcript")
	}
	return transcript, nil
}

// ListRecent retrieves the newest transcripts first
func (r *transcriptRepository) ListRecent(ctx context.Context, limit int) ([]*model.Transcript, error) {
	sql := `SELECT ` + selectColumns + ` FROM transcripts ORDER BY created_at DESC, id DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, sql, NormalizeLimit(limit))
	if err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to list transcripts")
	}
	defer rows.Close()

	transcripts := []*model.Transcript{}
	for rows.Next() {
		transcript, err := scanTranscript(rows)
		if err != nil {
			return nil, common.HandlePostgreSQLError(err, "failed to scan transcript row")
		}
		transcripts = append(transcripts, transcript)
	}

	if err := rows.Err(); err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to iterate transcript rows")
	}

	return transcripts, nil
}

// Delete deletes a transcript by ID
func (r *transcriptRepository) Delete(ctx context.Context, id int64) error {
	sql := "DELETE FROM transcripts WHERE id = $1"
	tag, err := r.pool.Exec(ctx, sql, id)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to delete transcript")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.CodeNotFound, "transcript "+strconv.FormatInt(id, 10)+" not found")
	}
	return nil
}

func scanTranscript(row pgx.Row) (*model.Transcript, error) {
	var (
		transcript   model.Transcript
		format       string
		segmentsJSON []byte
	)
	err := row.Scan(
		&transcript.ID,
		&transcript.SourceURL,
		&transcript.VideoTitle,
		&transcript.Username,
		&transcript.Duration,
		&transcript.Language,
		&format,
		&segmentsJSON,
		&transcript.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	transcript.TimestampFormat = model.TimestampFormat(format)
	transcript.Segments = []model.TranscriptSegment{}
	if len(segmentsJSON) > 0 {
		if err := json.Unmarshal(segmentsJSON, &transcript.Segments); err != nil {
			return nil, err
		}
	}
	return &transcript, nil
}
