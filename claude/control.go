package claude

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/bazelment/claude-agent-go/protocol"
)

// controlOutcome is the resolution of a pending control request.
type controlOutcome struct {
	payload protocol.ControlResponsePayload
	err     error
}

// correlator matches caller-initiated control requests to their responses.
//
// Request identifiers are `<session-prefix>-<counter>`: the prefix is unique
// per session, the counter monotonic, so identifiers never repeat for the
// session's lifetime. Each pending entry holds a single-shot reply slot that
// is resolved exactly once: by response, timeout, or close.
type correlator struct {
	prefix  string
	counter atomic.Int64

	mu      sync.Mutex
	pending map[string]chan controlOutcome
	closed  bool
}

func newCorrelator() *correlator {
	return &correlator{
		prefix:  uuid.NewString()[:8],
		pending: make(map[string]chan controlOutcome),
	}
}

// NextID returns a fresh request identifier.
func (c *correlator) NextID() string {
	return fmt.Sprintf("%s-%d", c.prefix, c.counter.Add(1))
}

// Register installs a reply slot for id. Returns an error if the correlator
// already shut down.
func (c *correlator) Register(id string) (chan controlOutcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	ch := make(chan controlOutcome, 1)
	c.pending[id] = ch
	return ch, nil
}

// Resolve delivers an inbound control response to its waiting initiator.
// Responses for unknown identifiers (late arrivals after timeout, or traffic
// this session never initiated) are dropped.
func (c *correlator) Resolve(resp protocol.ControlResponse) {
	id := resp.CorrelationID()

	c.mu.Lock()
	ch, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if !ok {
		return
	}

	if resp.Response.Subtype == "error" {
		ch <- controlOutcome{err: &ControlError{RequestID: id, Message: resp.Response.Error}}
		return
	}
	ch <- controlOutcome{payload: resp.Response}
}

// remove discards a pending entry without resolving it, so a late response
// cannot resolve an already-failed slot.
func (c *correlator) remove(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// FailAll resolves every pending entry with err and stops accepting new
// registrations. Called once at session close or process exit.
func (c *correlator) FailAll(err error) {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[string]chan controlOutcome)
	c.closed = true
	c.mu.Unlock()

	for id, ch := range pending {
		ch <- controlOutcome{err: fmt.Errorf("%w: %s", err, id)}
	}
}

// Await blocks on the reply slot up to timeout. The entry is removed on
// timeout so the identifier cannot be resolved late.
func (c *correlator) Await(ctx context.Context, id string, ch chan controlOutcome, timeout time.Duration) (protocol.ControlResponsePayload, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-ch:
		return out.payload, out.err
	case <-timer.C:
		c.remove(id)
		return protocol.ControlResponsePayload{}, fmt.Errorf("%w: %s", ErrControlTimeout, id)
	case <-ctx.Done():
		c.remove(id)
		return protocol.ControlResponsePayload{}, ctx.Err()
	}
}

// handlerPool runs process-initiated control request handlers off the reader
// goroutine, so a handler that calls back into the session cannot deadlock
// the read loop.
type handlerPool struct {
	work  chan func()
	wg    sync.WaitGroup
	spill sync.WaitGroup
	once  sync.Once
}

const handlerPoolSize = 4

func newHandlerPool() *handlerPool {
	p := &handlerPool{
		work: make(chan func(), 16),
	}
	for i := 0; i < handlerPoolSize; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *handlerPool) worker() {
	defer p.wg.Done()
	for fn := range p.work {
		fn()
	}
}

// Submit enqueues fn, spilling to a fresh goroutine if the queue is full so
// the reader is never blocked.
func (p *handlerPool) Submit(fn func()) {
	defer func() {
		// Submitting after Shutdown races with channel close during
		// teardown; drop the work.
		_ = recover()
	}()
	select {
	case p.work <- fn:
	default:
		p.spill.Add(1)
		go func() {
			defer p.spill.Done()
			fn()
		}()
	}
}

// Shutdown stops the workers after draining queued work and waits for any
// spilled handlers still running. Idempotent.
func (p *handlerPool) Shutdown() {
	p.once.Do(func() {
		close(p.work)
	})
	p.wg.Wait()
	p.spill.Wait()
}
