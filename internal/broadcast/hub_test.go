package broadcast

import (
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/Taichi-iskw/xscribe/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObserver struct {
	id      string
	ready   bool
	sendErr error
	// block, when set, stalls every Send until it is closed
	block chan struct{}

	mu     sync.Mutex
	events []model.ProgressEvent
}

func newFakeObserver(id string) *fakeObserver {
	return &fakeObserver{id: id, ready: true}
}

func (f *fakeObserver) ID() string  { return f.id }
func (f *fakeObserver) Ready() bool { return f.ready }

func (f *fakeObserver) Send(event model.ProgressEvent) error {
	if f.block != nil {
		<-f.block
	}
	if f.sendErr != nil {
		return f.sendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeObserver) received() []model.ProgressEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ProgressEvent(nil), f.events...)
}

// waitFor blocks until o has received n events
func waitFor(t *testing.T, o *fakeObserver, n int) []model.ProgressEvent {
	t.Helper()
	require.Eventually(t, func() bool { return len(o.received()) >= n }, time.Second, time.Millisecond)
	return o.received()
}

func progress(runID string, step int) model.ProgressEvent {
	return model.ProgressEvent{Type: model.EventTypeProgress, RunID: runID, Step: step, Status: model.StepActive}
}

func TestHub_PublishStampsEvents(t *testing.T) {
	hub := NewHub(nil)

	first := hub.Publish(progress("a", 1))
	second := hub.Publish(progress("a", 2))

	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)
	assert.False(t, first.Timestamp.IsZero())
	assert.False(t, second.Timestamp.Before(first.Timestamp))
}

func TestHub_DeliversToAllReadyObservers(t *testing.T) {
	hub := NewHub(nil)
	a, b := newFakeObserver("a"), newFakeObserver("b")
	notReady := newFakeObserver("c")
	notReady.ready = false

	hub.Register(a, "")
	hub.Register(b, "")
	hub.Register(notReady, "")

	hub.Publish(progress("run-1", 1))

	assert.Len(t, waitFor(t, a, 1), 1)
	assert.Len(t, waitFor(t, b, 1), 1)
	assert.Never(t, func() bool { return len(notReady.received()) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, 3, hub.Count(), "not-ready observers stay registered")
}

func TestHub_NoObservers(t *testing.T) {
	hub := NewHub(nil)
	assert.NotPanics(t, func() { hub.Publish(progress("run-1", 1)) })
}

func TestHub_RunFilter(t *testing.T) {
	hub := NewHub(nil)
	onlyA := newFakeObserver("only-a")
	all := newFakeObserver("all")
	hub.Register(onlyA, "a")
	hub.Register(all, "")

	hub.Publish(progress("a", 1))
	hub.Publish(progress("b", 1))

	assert.Len(t, waitFor(t, all, 2), 2)
	events := waitFor(t, onlyA, 1)
	require.Len(t, events, 1)
	assert.Equal(t, "a", events[0].RunID)
}

func TestHub_NoReplayForLateObservers(t *testing.T) {
	hub := NewHub(nil)
	hub.Publish(progress("a", 1))
	hub.Publish(progress("a", 2))

	late := newFakeObserver("late")
	hub.Register(late, "a")
	hub.Publish(progress("a", 3))

	events := waitFor(t, late, 1)
	require.Len(t, events, 1)
	assert.Equal(t, 3, events[0].Step)
	assert.Equal(t, int64(3), events[0].Seq)
}

func TestHub_DropsFailingObserver(t *testing.T) {
	hub := NewHub(nil)
	broken := newFakeObserver("broken")
	broken.sendErr = stderrors.New("broken pipe")
	healthy := newFakeObserver("healthy")

	hub.Register(broken, "")
	hub.Register(healthy, "")
	hub.Publish(progress("a", 1))

	assert.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, time.Millisecond)
	assert.Len(t, waitFor(t, healthy, 1), 1)
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub(nil)
	o := newFakeObserver("o")
	unregister := hub.Register(o, "")
	unregister()
	hub.Unregister("unknown")

	hub.Publish(progress("a", 1))
	assert.Zero(t, hub.Count())
	assert.Never(t, func() bool { return len(o.received()) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestHub_ConcurrentPublishKeepsOrderPerObserver(t *testing.T) {
	hub := NewHub(nil)
	o := newFakeObserver("o")
	hub.Register(o, "")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < outboxSize/8; j++ {
				hub.Publish(progress("a", 1))
			}
		}()
	}
	wg.Wait()

	events := waitFor(t, o, outboxSize/2)
	require.Len(t, events, outboxSize/2)
	for i := 1; i < len(events); i++ {
		assert.Greater(t, events[i].Seq, events[i-1].Seq)
	}
}

func TestHub_SlowObserverDoesNotDelayOthers(t *testing.T) {
	hub := NewHub(nil)
	stalled := newFakeObserver("stalled")
	stalled.block = make(chan struct{})
	defer close(stalled.block)
	otherRun := newFakeObserver("other-run")
	otherRun.block = stalled.block
	fast := newFakeObserver("fast")

	hub.Register(stalled, "")
	hub.Register(otherRun, "r2")
	hub.Register(fast, "r1")

	start := time.Now()
	hub.Publish(progress("r1", 1))
	hub.Publish(progress("r1", 2))
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	events := waitFor(t, fast, 2)
	assert.Equal(t, 1, events[0].Step)
	assert.Equal(t, 2, events[1].Step)
}

func TestHub_DropsObserverThatFallsTooFarBehind(t *testing.T) {
	hub := NewHub(nil)
	stalled := newFakeObserver("stalled")
	stalled.block = make(chan struct{})
	defer close(stalled.block)
	fast := newFakeObserver("fast")

	hub.Register(stalled, "")
	hub.Register(fast, "")

	// one event may already be held by the stalled writer; the queue holds the rest
	for i := 0; i < outboxSize+2; i++ {
		hub.Publish(progress("a", 1))
		if i%16 == 0 {
			waitFor(t, fast, i+1)
		}
	}

	assert.Equal(t, 1, hub.Count())
	assert.Len(t, waitFor(t, fast, outboxSize+2), outboxSize+2)
}
