package eventloop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mash-protocol/wifiprov/pkg/event"
)

// Loop errors.
var (
	ErrAlreadyStarted = errors.New("event loop already started")
	ErrNotRunning     = errors.New("event loop not running")
	ErrNilHandler     = errors.New("nil event handler")
)

// Handler receives events for a namespace.
type Handler func(ev event.Event)

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used for handler panics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

type registration struct {
	id      uint64
	handler Handler
}

// Loop serializes event delivery onto one goroutine.
type Loop struct {
	mu sync.Mutex

	running  bool
	handlers map[event.Namespace][]registration
	nextID   uint64

	queue []event.Event
	busy  bool // a batch is being dispatched
	wake  chan struct{}
	idle  *sync.Cond

	cancel context.CancelFunc
	done   chan struct{}

	logger *slog.Logger
}

// New creates a stopped loop.
func New(opts ...Option) *Loop {
	l := &Loop{
		handlers: make(map[event.Namespace][]registration),
		wake:     make(chan struct{}, 1),
	}
	l.idle = sync.NewCond(&l.mu)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start launches the dispatch goroutine. The loop stops when ctx is
// cancelled or Stop is called.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	l.running = true
	l.cancel = cancel
	l.done = make(chan struct{})

	go l.run(ctx, l.done)
	return nil
}

// Stop halts the dispatch goroutine and waits for it to exit.
// Queued events that were not delivered yet are dropped.
func (l *Loop) Stop() error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return nil
	}
	cancel := l.cancel
	done := l.done
	l.mu.Unlock()

	cancel()
	<-done
	return nil
}

// Running reports whether the dispatch goroutine is active.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Register adds a handler for a namespace. The returned function removes
// it again and is safe to call more than once.
func (l *Loop) Register(ns event.Namespace, h Handler) (func(), error) {
	if h == nil {
		return nil, ErrNilHandler
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	id := l.nextID
	l.handlers[ns] = append(l.handlers[ns], registration{id: id, handler: h})

	var once sync.Once
	return func() {
		once.Do(func() { l.unregister(ns, id) })
	}, nil
}

func (l *Loop) unregister(ns event.Namespace, id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	regs := l.handlers[ns]
	for i, r := range regs {
		if r.id == id {
			l.handlers[ns] = append(regs[:i:i], regs[i+1:]...)
			break
		}
	}
	if len(l.handlers[ns]) == 0 {
		delete(l.handlers, ns)
	}
}

// HandlerCount returns the number of handlers registered for ns.
func (l *Loop) HandlerCount(ns event.Namespace) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.handlers[ns])
}

// Post queues an event for delivery. It never blocks.
func (l *Loop) Post(ev event.Event) error {
	if ev == nil {
		return errors.New("nil event")
	}

	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return ErrNotRunning
	}
	l.queue = append(l.queue, ev)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Flush blocks until every event queued so far has been delivered, the loop
// stops, or ctx is done.
func (l *Loop) Flush(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		l.mu.Lock()
		l.idle.Broadcast()
		l.mu.Unlock()
	})
	defer stop()

	l.mu.Lock()
	defer l.mu.Unlock()

	for l.running && (len(l.queue) > 0 || l.busy) {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.idle.Wait()
	}
	if !l.running {
		return ErrNotRunning
	}
	return nil
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	defer func() {
		l.mu.Lock()
		l.running = false
		l.queue = nil
		l.busy = false
		l.idle.Broadcast()
		l.mu.Unlock()
		close(done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.wake:
		}

		for {
			l.mu.Lock()
			if len(l.queue) == 0 {
				l.busy = false
				l.idle.Broadcast()
				l.mu.Unlock()
				break
			}
			ev := l.queue[0]
			l.queue[0] = nil
			l.queue = l.queue[1:]
			l.busy = true
			regs := append([]registration(nil), l.handlers[ev.Namespace()]...)
			l.mu.Unlock()

			for _, r := range regs {
				l.dispatch(r.handler, ev)
			}

			if ctx.Err() != nil {
				return
			}
		}
	}
}

// dispatch calls one handler, recovering from panics.
func (l *Loop) dispatch(h Handler, ev event.Event) {
	defer func() {
		if r := recover(); r != nil {
			l.logError("event handler panicked",
				"namespace", string(ev.Namespace()),
				"event", ev.ID(),
				"panic", fmt.Sprint(r))
		}
	}()
	h(ev)
}

func (l *Loop) logError(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Error(msg, args...)
	}
}
