package preload

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/ZanzyTHEbar/virtual-photofs/vpfs/decode"
)

// Pool runs a fixed number of decode workers over a task channel and posts
// results back to the loader. Workers own nothing but their in-flight
// buffer until handoff; they never mutate shared state directly.
type Pool struct {
	decoder decode.Decoder
	timeout time.Duration

	tasks   chan *Task
	results chan Result

	workers *pool.Pool
	cancel  context.CancelFunc
}

// NewPool constructs a pool of workers decode goroutines (clamped 1..50).
func NewPool(decoder decode.Decoder, workers int, timeout time.Duration) *Pool {
	if workers < 1 {
		workers = 1
	}
	if workers > 50 {
		workers = 50
	}
	return &Pool{
		decoder: decoder,
		timeout: timeout,
		// The loader bounds in-flight work by the active tier's concurrency,
		// which never exceeds the worker count, so sends below never block.
		tasks:   make(chan *Task, workers),
		results: make(chan Result, 2*workers),
		workers: pool.New().WithMaxGoroutines(workers),
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < cap(p.tasks); i++ {
		p.workers.Go(func() {
			p.run(ctx)
		})
	}
}

// Submit hands a task to the workers. The caller must respect the
// concurrency cap so the task channel cannot fill.
func (p *Pool) Submit(t *Task) {
	p.tasks <- t
}

// Results is the channel the loader consumes completions from.
func (p *Pool) Results() <-chan Result { return p.results }

// Close stops accepting work, cancels the workers' context and waits for
// them to drain. Safe to call once.
func (p *Pool) Close() {
	close(p.tasks)
	if p.cancel != nil {
		p.cancel()
	}
	p.workers.Wait()
}

func (p *Pool) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-p.tasks:
			if !ok {
				return
			}
			p.serve(ctx, t)
		}
	}
}

// serve performs one decode with the mandated token checks: immediately
// before decode and again after, before reporting success.
func (p *Pool) serve(ctx context.Context, t *Task) {
	if t.Token.Cancelled() {
		// Popped with a signalled token: discard without decoding.
		p.report(ctx, Result{Task: t, Cancelled: true})
		return
	}

	dctx := t.Token.Context()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(dctx, p.timeout)
		defer cancel()
	}

	payload, meta, err := p.decoder.Decode(dctx, t.Ref.Locator)

	if t.Token.Cancelled() {
		p.report(ctx, Result{Task: t, Cancelled: true})
		return
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = &decode.Failure{Locator: t.Ref.Locator, Reason: decode.ErrTimeout}
			slog.Warn("Decode exceeded timeout",
				"locator", t.Ref.Locator,
				"timeout", p.timeout)
		}
		p.report(ctx, Result{Task: t, Err: err})
		return
	}

	p.report(ctx, Result{Task: t, Payload: payload, Meta: meta})
}

func (p *Pool) report(ctx context.Context, r Result) {
	select {
	case p.results <- r:
	case <-ctx.Done():
	}
}
