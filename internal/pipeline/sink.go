package pipeline

import (
	"sync"

	"comment-insights-go/internal/types"
)

// Sink receives events in the order they are emitted. Emit must return
// quickly; wrap slow writers with NewAsyncSink.
type Sink interface {
	Emit(types.Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(types.Event)

func (f SinkFunc) Emit(e types.Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(types.Event) {})

// Recorder keeps every event; used by the CLI and tests.
type Recorder struct {
	mu     sync.Mutex
	events []types.Event
}

func (r *Recorder) Emit(e types.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *Recorder) Events() []types.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Event, len(r.events))
	copy(out, r.events)
	return out
}

// AsyncSink queues events in memory and forwards them to dst from a single
// goroutine, so Emit never waits on dst and order is preserved.
type AsyncSink struct {
	dst    Sink
	mu     sync.Mutex
	queue  []types.Event
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

func NewAsyncSink(dst Sink) *AsyncSink {
	s := &AsyncSink{
		dst:  dst,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *AsyncSink) Emit(e types.Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, e)
	// wake is closed only under mu, so the send is safe here
	select {
	case s.wake <- struct{}{}:
	default:
	}
	s.mu.Unlock()
}

// Close stops accepting events and waits until the queue is drained.
func (s *AsyncSink) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.wake)
	}
	s.mu.Unlock()
	<-s.done
}

func (s *AsyncSink) run() {
	defer close(s.done)
	for {
		_, open := <-s.wake
		for {
			s.mu.Lock()
			batch := s.queue
			s.queue = nil
			s.mu.Unlock()
			if len(batch) == 0 {
				break
			}
			for _, e := range batch {
				s.dst.Emit(e)
			}
		}
		if !open {
			return
		}
	}
}
