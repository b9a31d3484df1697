package pipeline

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/cpu"
	"golang.org/x/sync/errgroup"
)

// ResolveThreads maps the configured thread count to a worker count,
// zero meaning one worker per logical core.
func ResolveThreads(threads int) int {
	if threads > 0 {
		return threads
	}
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}
	return n
}

// pool runs units of work with bounded parallelism. The first failing
// unit cancels the context, units not started yet are skipped.
type pool struct {
	g   *errgroup.Group
	ctx context.Context
}

func newPool(ctx context.Context, workers int) *pool {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	return &pool{g: g, ctx: gctx}
}

func (p *pool) Go(f func(ctx context.Context) error) {
	p.g.Go(func() error {
		if err := p.ctx.Err(); err != nil {
			return err
		}
		return f(p.ctx)
	})
}

// Wait returns the first error after every started unit finished.
func (p *pool) Wait() error {
	return p.g.Wait()
}
