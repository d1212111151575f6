package claude

import (
	"context"
	"sync"

	"github.com/bazelment/claude-agent-go/protocol"
)

// turnSubscriber receives the data-plane messages of one turn. The buffer is
// unbounded so the reader goroutine never blocks on a slow consumer.
type turnSubscriber struct {
	mu     sync.Mutex
	buf    []protocol.Message
	err    error
	notify chan struct{}
	done   bool
}

func newTurnSubscriber() *turnSubscriber {
	return &turnSubscriber{notify: make(chan struct{}, 1)}
}

func (s *turnSubscriber) deliver(msg protocol.Message) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.buf = append(s.buf, msg)
	s.mu.Unlock()
	s.wake()
}

// complete marks the subscriber finished. Buffered messages remain readable;
// err (if any) is returned once the buffer drains. Idempotent.
func (s *turnSubscriber) complete(err error) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	s.err = err
	s.mu.Unlock()
	s.wake()
}

func (s *turnSubscriber) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Next returns the next buffered message. After the stream completes and the
// buffer drains it returns (nil, err) where err is nil on a clean completion.
func (s *turnSubscriber) Next(ctx context.Context) (protocol.Message, error) {
	for {
		s.mu.Lock()
		if len(s.buf) > 0 {
			msg := s.buf[0]
			s.buf = s.buf[1:]
			s.mu.Unlock()
			return msg, nil
		}
		if s.done {
			err := s.err
			s.mu.Unlock()
			return nil, err
		}
		s.mu.Unlock()

		select {
		case <-s.notify:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// turnRouter fans the session's data-plane messages out to the single active
// turn subscriber. Subscribing completes any previous subscriber, so at most
// one consumer streams a turn at a time.
type turnRouter struct {
	mu     sync.Mutex
	active *turnSubscriber
}

func newTurnRouter() *turnRouter {
	return &turnRouter{}
}

// Subscribe installs a fresh subscriber for the next turn, completing the
// prior one if it was still attached.
func (r *turnRouter) Subscribe() *turnSubscriber {
	sub := newTurnSubscriber()

	r.mu.Lock()
	prev := r.active
	r.active = sub
	r.mu.Unlock()

	if prev != nil {
		prev.complete(nil)
	}
	return sub
}

// Dispatch delivers msg to the active subscriber. A result message completes
// the subscriber after delivery and detaches it, so messages of the next turn
// can never leak into a finished stream.
func (r *turnRouter) Dispatch(msg protocol.Message) {
	r.mu.Lock()
	sub := r.active
	isResult := false
	if _, ok := msg.(protocol.ResultMessage); ok {
		isResult = true
		r.active = nil
	}
	r.mu.Unlock()

	if sub == nil {
		return
	}
	sub.deliver(msg)
	if isResult {
		sub.complete(nil)
	}
}

// FailActive completes the active subscriber with err and detaches it.
func (r *turnRouter) FailActive(err error) {
	r.mu.Lock()
	sub := r.active
	r.active = nil
	r.mu.Unlock()

	if sub != nil {
		sub.complete(err)
	}
}
