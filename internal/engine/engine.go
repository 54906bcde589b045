package engine

import (
	"context"
	"log/slog"
)

// DefaultStepLimit bounds the tasks a single Drain may execute.
const DefaultStepLimit = 100000

// Dispatcher is the single-writer task loop.
//
// Thread-safety model:
//   - Post(): safe from any goroutine
//   - Run() / Drain(): must be called from exactly one goroutine at a time
//   - Pending(), Steps(): safe from any goroutine
//
// Tasks run to completion in FIFO order. A panicking task is not
// recovered; a panic is an invariant violation in the caller.
type Dispatcher struct {
	queue     *taskQueue
	clock     *Clock
	stepLimit int
	logger    *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithStepLimit sets the per-Drain task limit. A limit <= 0 disables it.
func WithStepLimit(limit int) Option {
	return func(d *Dispatcher) {
		d.stepLimit = limit
	}
}

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithClock installs a pre-configured clock.
func WithClock(c *Clock) Option {
	return func(d *Dispatcher) {
		d.clock = c
	}
}

// New creates a dispatcher with an empty queue.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		queue:     newTaskQueue(),
		clock:     NewClock(),
		stepLimit: DefaultStepLimit,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Post submits a task for later execution.
// Returns false, dropping the task, if the dispatcher has been stopped.
func (d *Dispatcher) Post(t Task) bool {
	if !d.queue.Enqueue(t) {
		d.logger.Warn("dispatcher stopped, dropping posted task")
		return false
	}
	return true
}

// Run executes tasks until ctx is cancelled or Stop is called and the
// queue has drained. The step limit does not apply to Run.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("dispatcher starting")

	for {
		if t, ok := d.queue.TryDequeue(); ok {
			d.execute(t)
			continue
		}

		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher stopping: context cancelled", "steps", d.clock.Current())
			d.queue.Close()
			return ctx.Err()

		case <-d.queue.Wait():
			// The signal coalesces, so an empty queue is only final once closed
			if d.queue.Drained() {
				d.logger.Info("dispatcher stopping: queue closed", "steps", d.clock.Current())
				return nil
			}
		}
	}
}

// Drain executes queued tasks on the calling goroutine, including tasks
// posted while draining, until the queue is empty. It returns the number
// of tasks executed.
//
// When more tasks remain after the step limit was reached, Drain stops
// with a StepLimitError and leaves them queued.
func (d *Dispatcher) Drain() (int, error) {
	n := 0
	for {
		if d.stepLimit > 0 && n >= d.stepLimit && d.queue.Len() > 0 {
			return n, &StepLimitError{Steps: n, Limit: d.stepLimit}
		}
		t, ok := d.queue.TryDequeue()
		if !ok {
			return n, nil
		}
		d.execute(t)
		n++
	}
}

// Stop closes the queue. Tasks already posted still run; new posts are dropped.
func (d *Dispatcher) Stop() {
	d.queue.Close()
}

// Pending returns the number of queued tasks.
func (d *Dispatcher) Pending() int {
	return d.queue.Len()
}

// Steps returns the number of tasks executed so far.
func (d *Dispatcher) Steps() int64 {
	return d.clock.Current()
}

func (d *Dispatcher) execute(t Task) {
	d.clock.Next()
	t()
}
