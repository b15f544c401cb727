package transcript

import (
	"fmt"
	"io"
	"sync"

	"github.com/Taichi-iskw/xscribe/internal/model"
	"github.com/Taichi-iskw/xscribe/internal/service/pipeline"
)

// ProgressPrinter writes pipeline progress events as one line each
type ProgressPrinter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewProgressPrinter creates a printer writing to out
func NewProgressPrinter(out io.Writer) *ProgressPrinter {
	return &ProgressPrinter{out: out}
}

// Publish implements pipeline.Publisher
func (p *ProgressPrinter) Publish(event model.ProgressEvent) model.ProgressEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch event.Type {
	case model.EventTypeError:
		fmt.Fprintf(p.out, "[%3d%%] error: %s\n", event.OverallProgress, event.Message)
	case model.EventTypeProgress:
		fmt.Fprintf(p.out, "[%3d%%] step %d/%d %s\n", event.OverallProgress, event.Step, pipeline.StepTranscription, event.Message)
	}
	return event
}
