// Package shrine confines a resource to a single dedicated OS thread and lets any
// goroutine run closures against it. The resource is created on that thread by a
// summoner, is only ever touched there, and is released when the thread exits.
//
// Calls are executed one at a time in the order they were enqueued. A synchronous
// call returns the closure's result to the caller; a raw call returns as soon as
// the closure is queued.
package shrine

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Zaphodious/oosikle-app/log"
	"github.com/Zaphodious/oosikle-app/metrics"
)

type workItem[T any] interface {
	execute(kami *T) error
}

// rawMessenger has no reply path, failures are only visible in logs and metrics.
type rawMessenger[T any] func(kami *T) error

func (m rawMessenger[T]) execute(kami *T) error {
	return m(kami)
}

type replyMessenger[T any] func(kami *T) error

func (m replyMessenger[T]) execute(kami *T) error {
	return m(kami)
}

// sentinel stops the worker loop.
type sentinel[T any] struct{}

func (sentinel[T]) execute(*T) error {
	return nil
}

type workerState struct {
	// summonErr is written by the worker before done is closed.
	summonErr error

	// closing is set before the sentinel is sent; enqueues hold mu for reading so
	// nothing can be queued behind the sentinel.
	mu      sync.RWMutex
	closing bool
}

// Handle is the sending side of a shrine. It is safe for concurrent use and may be
// shared freely; the pointer is the clone.
type Handle[T any] struct {
	label string
	queue chan<- workItem[T]
	done  <-chan struct{}
	state *workerState
}

// Guard owns the lifetime of the worker. Closing it drains the work enqueued before
// the close, then stops the worker and releases the resource.
type Guard struct {
	label    string
	shutdown *shutdown
	done     <-chan struct{}
	state    *workerState
	cleanup  runtime.Cleanup
}

type shutdown struct {
	once sync.Once
	stop func()
}

func (s *shutdown) run() {
	s.once.Do(s.stop)
}

type worker[T any] struct {
	label  string
	queue  <-chan workItem[T]
	done   chan struct{}
	state  *workerState
	logger *log.Logger
}

// Build starts a worker thread, summons the resource on it and returns the handle
// and guard. A failing summoner does not fail Build: the worker exits immediately,
// every call on the handle reports ErrActorUnavailable and Guard.Err returns the cause.
func Build[T any](label string, summon func() (T, error), opts ...Option) (*Handle[T], *Guard, error) {
	if summon == nil {
		return nil, nil, ErrNilSummoner
	}

	options := newDefaultOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, nil, err
		}
	}

	queue := make(chan workItem[T], options.QueueCapacity)
	done := make(chan struct{})
	state := &workerState{}

	w := &worker[T]{
		label:  label,
		queue:  queue,
		done:   done,
		state:  state,
		logger: options.Logger.Named("shrine").Named(label),
	}
	go w.run(summon)

	h := &Handle[T]{
		label: label,
		queue: queue,
		done:  done,
		state: state,
	}

	sd := &shutdown{
		stop: func() {
			state.mu.Lock()
			state.closing = true
			state.mu.Unlock()

			select {
			case queue <- sentinel[T]{}:
			case <-done:
			}
			<-done
		},
	}
	g := &Guard{
		label:    label,
		shutdown: sd,
		done:     done,
		state:    state,
	}
	// Dropping the guard without Close must not strand the worker thread.
	g.cleanup = runtime.AddCleanup(g, func(sd *shutdown) {
		go sd.run()
	}, sd)

	return h, g, nil
}

func (w *worker[T]) run(summon func() (T, error)) {
	// The thread is never unlocked, so it is discarded together with the goroutine.
	runtime.LockOSThread()

	metrics.WorkerStarted()
	defer metrics.WorkerStopped()
	defer close(w.done)

	kami, err := summonOnThread(summon)
	if err != nil {
		w.state.summonErr = err
		w.logger.Error("Failed to summon resource: %v", err)
		return
	}
	w.logger.Debug("Worker started")

	for item := range w.queue {
		if _, ok := item.(sentinel[T]); ok {
			break
		}
		w.execute(item, &kami)
	}

	w.release(kami)
	w.logger.Debug("Worker stopped")
}

func (w *worker[T]) execute(item workItem[T], kami *T) {
	start := time.Now()
	err := executeRecovered(item, kami)

	status := metrics.StatusOK
	if err != nil {
		status = metrics.StatusFailed
		if _, ok := err.(*PanicError); ok {
			status = metrics.StatusPanicked
		}
		if _, ok := item.(replyMessenger[T]); ok {
			w.logger.Debug("Work item failed: %v", err)
		} else {
			w.logger.Warn("Raw work item failed: %v", err)
		}
	}
	metrics.RecordWorkItem(w.label, status, time.Since(start))
}

// release closes resources that know how to close themselves.
func (w *worker[T]) release(kami T) {
	var err error
	switch r := any(kami).(type) {
	case interface{ Close(context.Context) error }:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		err = r.Close(ctx)
	case interface{ Close() error }:
		err = r.Close()
	}

	if err != nil {
		w.logger.Warn("Failed to release resource: %v", err)
	}
}

func summonOnThread[T any](summon func() (T, error)) (kami T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()

	return summon()
}

func executeRecovered[T any](item workItem[T], kami *T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()

	return item.execute(kami)
}

// Label returns the name the shrine was built with.
func (h *Handle[T]) Label() string {
	return h.label
}

// Alive reports whether the worker is still accepting work.
func (h *Handle[T]) Alive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Done is closed once the worker has exited.
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

func (h *Handle[T]) unavailable(cause error) error {
	metrics.RecordRejected(h.label)

	if cause == nil {
		cause = h.state.summonErr
	}
	if cause == nil {
		return fmt.Errorf("%w: shrine '%s' has shut down", ErrActorUnavailable, h.label)
	}

	return fmt.Errorf("%w: shrine '%s': %w", ErrActorUnavailable, h.label, cause)
}

func (h *Handle[T]) enqueue(ctx context.Context, item workItem[T]) error {
	// A closed done must win over a queue that still has room.
	select {
	case <-h.done:
		return h.unavailable(nil)
	default:
	}

	h.state.mu.RLock()
	defer h.state.mu.RUnlock()
	if h.state.closing {
		return h.unavailable(errShuttingDown)
	}

	select {
	case h.queue <- item:
		return nil
	case <-h.done:
		return h.unavailable(nil)
	case <-ctx.Done():
		return h.unavailable(ctx.Err())
	}
}

// SendRaw enqueues fn and returns without waiting for it to run. Errors from fn are
// logged by the worker and counted, they never reach the caller. Once the guard
// has started closing, SendRaw reports ErrActorUnavailable, so a nil error means
// fn was queued ahead of the stop and will run.
func (h *Handle[T]) SendRaw(ctx context.Context, fn func(kami *T) error) error {
	return h.enqueue(ctx, rawMessenger[T](fn))
}

type reply[R any] struct {
	value R
	err   error
}

// Send runs fn with the resource on the worker thread and returns its result.
func Send[T, R any](ctx context.Context, h *Handle[T], fn func(kami T) (R, error)) (R, error) {
	return SendMutating(ctx, h, func(kami *T) (R, error) {
		return fn(*kami)
	})
}

// SendMutating runs fn with exclusive access to the resource; fn may replace the
// resource value itself. If ctx ends before the reply arrives the call reports
// ErrActorUnavailable, but fn may still run later.
func SendMutating[T, R any](ctx context.Context, h *Handle[T], fn func(kami *T) (R, error)) (R, error) {
	var zero R

	replies := make(chan reply[R], 1)
	item := replyMessenger[T](func(kami *T) error {
		value, err := callRecovered(fn, kami)
		replies <- reply[R]{value: value, err: err}
		return err
	})

	if err := h.enqueue(ctx, item); err != nil {
		return zero, err
	}

	select {
	case r := <-replies:
		return r.value, workItemFailed(r.err)
	case <-h.done:
		select {
		case r := <-replies:
			return r.value, workItemFailed(r.err)
		default:
			return zero, h.unavailable(errReplyLost)
		}
	case <-ctx.Done():
		return zero, h.unavailable(ctx.Err())
	}
}

func callRecovered[T, R any](fn func(*T) (R, error), kami *T) (value R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()

	return fn(kami)
}

// Close stops the worker after everything enqueued before it has run, and waits
// for the resource to be released. It is safe to call more than once.
func (g *Guard) Close() error {
	g.shutdown.run()
	g.cleanup.Stop()
	return nil
}

// Done is closed once the worker has exited.
func (g *Guard) Done() <-chan struct{} {
	return g.done
}

// Err returns the summoner's error once the worker has exited because of it.
func (g *Guard) Err() error {
	select {
	case <-g.done:
		return g.state.summonErr
	default:
		return nil
	}
}

func (g *Guard) Label() string {
	return g.label
}
