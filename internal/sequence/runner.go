package sequence

import (
	"context"
	"time"
)

// Runner drives a Plan on real timers.
type Runner struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Run starts plan and calls onChange with the state at every boundary,
// beginning with the initial state. Callbacks run on a single goroutine in
// boundary order. The runner stops on its own after the reveal, when ctx is
// cancelled, or when Stop is called.
func Run(ctx context.Context, plan Plan, onChange func(State)) *Runner {
	ctx, cancel := context.WithCancel(ctx)
	r := &Runner{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go r.loop(ctx, plan, onChange)
	return r
}

func (r *Runner) loop(ctx context.Context, plan Plan, onChange func(State)) {
	defer close(r.done)
	defer r.cancel()

	start := time.Now()
	for _, at := range plan.Boundaries() {
		if wait := at - time.Since(start); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
		if ctx.Err() != nil {
			return
		}
		if onChange != nil {
			onChange(plan.At(at))
		}
	}
}

// Stop cancels the runner and waits for its goroutine to exit. No callback
// runs after Stop returns. Stop must not be called from onChange.
func (r *Runner) Stop() {
	r.cancel()
	<-r.done
}

// Done is closed when the plan has finished or the runner was stopped.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}
