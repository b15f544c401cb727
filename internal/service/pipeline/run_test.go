package pipeline

import (
	"testing"
	"time"

	"github.com/Taichi-iskw/xscribe/internal/logger"
	"github.com/Taichi-iskw/xscribe/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stallingPublisher blocks inside Publish until release is closed
type stallingPublisher struct {
	entered chan struct{}
	release chan struct{}
}

func (p *stallingPublisher) Publish(event model.ProgressEvent) model.ProgressEvent {
	p.entered <- struct{}{}
	<-p.release
	return event
}

func TestRun_StateAvailableWhilePublishing(t *testing.T) {
	pub := &stallingPublisher{entered: make(chan struct{}, 1), release: make(chan struct{})}
	r := &run{id: "r1", state: StateIdle, publisher: pub, log: logger.Discard()}

	published := make(chan struct{})
	go func() {
		r.progress(StepMetadata, 10, model.StepActive, "Fetching post metadata...")
		close(published)
	}()
	<-pub.entered

	states := make(chan State, 1)
	go func() {
		require.NoError(t, r.transition(StateFetchingMetadata))
		r.setAudio("/tmp/a.wav")
		states <- r.State()
	}()

	select {
	case s := <-states:
		assert.Equal(t, StateFetchingMetadata, s)
	case <-time.After(time.Second):
		t.Fatal("state lock held during publish")
	}

	close(pub.release)
	<-published
}
