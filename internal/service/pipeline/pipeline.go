package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Taichi-iskw/xscribe/internal/errors"
	"github.com/Taichi-iskw/xscribe/internal/logger"
	"github.com/Taichi-iskw/xscribe/internal/model"
	"github.com/Taichi-iskw/xscribe/internal/service/media"
	"github.com/Taichi-iskw/xscribe/internal/service/transcription"
	"github.com/Taichi-iskw/xscribe/internal/service/twitter"
	"github.com/google/uuid"
)

const (
	DefaultTotalTimeout = 90 * time.Second
	DefaultTickInterval = 3 * time.Second

	tickStep    = 5
	tickCeiling = 80
)

var errTotalTimeout = stderrors.New("pipeline exceeded total timeout")

// Publisher receives progress events; broadcast.Hub implements it
type Publisher interface {
	Publish(event model.ProgressEvent) model.ProgressEvent
}

// Store persists finished transcripts
type Store interface {
	Create(ctx context.Context, transcript *model.Transcript) error
}

// Request is one transcription submission
type Request struct {
	URL             string
	Language        string                // "auto" when empty
	TimestampFormat model.TimestampFormat // seconds when empty
	RunID           string                // generated when empty
}

// Options tunes the orchestrator deadlines; zero values select defaults
type Options struct {
	TotalTimeout time.Duration
	TickInterval time.Duration
}

// Orchestrator drives a post URL through metadata, download, extraction and
// transcription, broadcasting progress as it goes
type Orchestrator struct {
	client      twitter.Client
	extractor   media.Extractor
	transcriber transcription.Transcriber
	store       Store
	publisher   Publisher
	opts        Options
	log         *logger.Logger
}

// New creates an Orchestrator. A nil store skips persistence (dry runs).
func New(client twitter.Client, extractor media.Extractor, transcriber transcription.Transcriber, store Store, publisher Publisher, opts Options, log *logger.Logger) *Orchestrator {
	if opts.TotalTimeout <= 0 {
		opts.TotalTimeout = DefaultTotalTimeout
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Orchestrator{
		client:      client,
		extractor:   extractor,
		transcriber: transcriber,
		store:       store,
		publisher:   publisher,
		opts:        opts,
		log:         log,
	}
}

// Run executes one pipeline run. On failure exactly one error event is
// published and the returned error carries a taxonomy code with the
// user-facing message. The audio artifact never outlives the call.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*model.Transcript, error) {
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	if req.Language == "" {
		req.Language = "auto"
	}
	if req.TimestampFormat == "" {
		req.TimestampFormat = model.TimestampSeconds
	}

	r := &run{
		id:        req.RunID,
		state:     StateIdle,
		publisher: o.publisher,
		log:       o.log.With("run_id", req.RunID),
	}
	defer r.removeAudio()

	transcript, err := o.execute(ctx, r, req)
	if err != nil {
		return nil, r.fail(err)
	}
	return transcript, nil
}

func (o *Orchestrator) execute(ctx context.Context, r *run, req Request) (*model.Transcript, error) {
	if !req.TimestampFormat.Valid() {
		return nil, errors.New(errors.CodeInvalidInput, fmt.Sprintf("unsupported timestamp format %q", req.TimestampFormat))
	}
	// reject malformed URLs before any network call
	post, err := twitter.ParsePostURL(req.URL)
	if err != nil {
		return nil, err
	}
	r.log = r.log.With("post_id", post.PostID)

	// Step 1: metadata, bounded by the caller's context only
	if err := r.transition(StateFetchingMetadata); err != nil {
		return nil, err
	}
	r.progress(StepMetadata, 10, model.StepActive, "Fetching post metadata...")
	ref, err := runStage(ctx, func(ctx context.Context) (*model.VideoReference, error) {
		return o.client.ResolveVideo(ctx, req.URL)
	})
	if err != nil {
		return nil, err
	}
	r.progress(StepMetadata, 100, model.StepCompleted, fmt.Sprintf("Found video by @%s", ref.AuthorUsername))

	outer, cancel := context.WithTimeoutCause(ctx, o.opts.TotalTimeout, errTotalTimeout)
	defer cancel()
	r.outer = outer

	// Step 2: download
	if err := r.transition(StateDownloading); err != nil {
		return nil, err
	}
	r.progress(StepDownload, 10, model.StepActive, "Downloading video...")
	video, err := runStage(outer, func(ctx context.Context) ([]byte, error) {
		return o.client.DownloadVideo(ctx, ref.VideoURL)
	})
	if err != nil {
		return nil, err
	}
	r.progress(StepDownload, 100, model.StepCompleted, fmt.Sprintf("Downloaded video (%.1f MB)", float64(len(video))/(1<<20)))

	// Step 3: extraction. Not raced: the artifact must be captured for cleanup
	// even when it arrives after the deadline, and ffmpeg is killed with the context.
	if err := r.transition(StateExtractingAudio); err != nil {
		return nil, err
	}
	r.progress(StepExtraction, 10, model.StepActive, "Extracting audio...")
	audio, err := o.extractor.ExtractAudio(outer, video)
	if audio != nil {
		r.setAudio(audio.Path)
	}
	if err != nil {
		return nil, err
	}
	if err := context.Cause(outer); err != nil {
		return nil, err
	}
	r.progress(StepExtraction, 100, model.StepCompleted, "Audio extracted")

	// Step 4: transcription
	if err := r.transition(StateTranscribing); err != nil {
		return nil, err
	}
	r.progress(StepTranscription, 10, model.StepActive, "Transcribing audio...")
	stopTicker := r.startTicker(o.opts.TickInterval)
	result, err := runStage(outer, func(ctx context.Context) (*model.TranscriptionResult, error) {
		return o.transcriber.Transcribe(ctx, audio, req.Language, req.TimestampFormat)
	})
	stopTicker()
	if err != nil {
		return nil, err
	}
	r.removeAudio()
	r.progress(StepTranscription, 100, model.StepCompleted, fmt.Sprintf("Transcription complete (%d segments)", len(result.Segments)))
	cancel()
	r.outer = nil

	transcript := &model.Transcript{
		SourceURL:       req.URL,
		VideoTitle:      ref.Title(),
		Username:        ref.AuthorUsername,
		Duration:        transcriptDuration(result, req.TimestampFormat),
		Language:        result.Language,
		TimestampFormat: req.TimestampFormat,
		Segments:        result.Segments,
		CreatedAt:       time.Now().UTC(),
	}

	if o.store != nil {
		if err := o.store.Create(ctx, transcript); err != nil {
			return nil, err
		}
	}

	if err := r.transition(StateDone); err != nil {
		return nil, err
	}
	r.log.With("segments", len(transcript.Segments)).Info("pipeline run completed")
	return transcript, nil
}

// runStage races fn against ctx so a collaborator that ignores cancellation
// cannot hold the run past its deadline. The abandoned call finishes in the background.
func runStage[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v: v, err: err}
	}()

	select {
	case res := <-done:
		return res.v, res.err
	case <-ctx.Done():
		var zero T
		return zero, context.Cause(ctx)
	}
}

// transcriptDuration is the last segment's timestamp. Runs without
// timestamps still get an m:ss duration from the last segment start.
func transcriptDuration(result *model.TranscriptionResult, format model.TimestampFormat) string {
	if len(result.Segments) == 0 {
		return "0:00"
	}
	if format == model.TimestampNone {
		return transcription.FormatTimestamp(result.LastStart, model.TimestampSeconds)
	}
	return result.Segments[len(result.Segments)-1].Timestamp
}

// run is the mutable state of one pipeline run
type run struct {
	id        string
	publisher Publisher
	log       *logger.Logger
	outer     context.Context

	mu        sync.Mutex
	state     State
	audioPath string

	// emitMu serializes emission so observers see overallProgress in publish order.
	// It is never held together with mu.
	emitMu      sync.Mutex
	lastOverall int
}

// State returns the current state
func (r *run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *run) transition(to State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !isValidTransition(r.state, to) {
		return errors.New(errors.CodeInternal, fmt.Sprintf("invalid transition: %s -> %s", r.state, to))
	}
	r.log.With("stage", to).Debug("stage transition")
	r.state = to
	return nil
}

// progress publishes a progress event; overall progress never regresses
func (r *run) progress(step, stepProgress int, status model.StepStatus, message string) {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()

	overall := max(OverallProgress(step, stepProgress), r.lastOverall)
	r.lastOverall = overall
	r.publish(model.ProgressEvent{
		Type:            model.EventTypeProgress,
		RunID:           r.id,
		Step:            step,
		StepProgress:    stepProgress,
		Status:          status,
		Message:         message,
		OverallProgress: overall,
	})
}

func (r *run) publish(event model.ProgressEvent) {
	if r.publisher != nil {
		r.publisher.Publish(event)
	}
}

// startTicker emits synthetic transcription progress until the returned
// function is called. The stop function waits for the ticker goroutine so
// no interim event can follow it.
func (r *run) startTicker(interval time.Duration) func() {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		pct := 10
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if ctx.Err() != nil {
					return
				}
				if pct >= tickCeiling {
					continue
				}
				pct = min(pct+tickStep, tickCeiling)
				r.progress(StepTranscription, pct, model.StepActive, "Transcribing audio...")
			}
		}
	}()

	return func() {
		cancel()
		wg.Wait()
	}
}

// fail classifies err, moves the run to Failed and publishes the single error event
func (r *run) fail(err error) error {
	timedOut := r.outer != nil && stderrors.Is(context.Cause(r.outer), errTotalTimeout)
	classified := classify(err, timedOut)

	r.mu.Lock()
	stage := r.state
	r.state = StateFailed
	r.mu.Unlock()

	r.emitMu.Lock()
	r.lastOverall = 100
	r.publish(model.ProgressEvent{
		Type:            model.EventTypeError,
		RunID:           r.id,
		Message:         classified.Message,
		OverallProgress: 100,
	})
	r.emitMu.Unlock()

	r.log.With("stage", stage).With("code", classified.Code).WithError(err).Warn("pipeline run failed")
	return classified
}

func (r *run) setAudio(path string) {
	r.mu.Lock()
	r.audioPath = path
	r.mu.Unlock()
}

// removeAudio deletes the audio artifact if one exists. Failures are logged only.
func (r *run) removeAudio() {
	r.mu.Lock()
	path := r.audioPath
	r.audioPath = ""
	r.mu.Unlock()

	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		r.log.With("path", path).WithError(err).Warn("failed to remove audio artifact")
	}
}
