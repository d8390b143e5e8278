package cleanup

import (
	"context"
	"time"

	"billetter/pkg/logger"
)

// Runner executes sweeps on a fixed interval until stopped.
type Runner struct {
	service  *Service
	interval time.Duration
	done     chan struct{}
}

func NewRunner(service *Service, interval time.Duration) *Runner {
	return &Runner{
		service:  service,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop in the background.
func (r *Runner) Start(ctx context.Context) {
	go r.loop(ctx)
	logger.GetDefault().Info("cleanup runner started", "interval", r.interval)
}

// Stop terminates the loop.
func (r *Runner) Stop() {
	close(r.done)
	logger.GetDefault().Info("cleanup runner stopped")
}

func (r *Runner) loop(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.service.RunFullSweep(ctx)
		case <-r.done:
			return
		case <-ctx.Done():
			return
		}
	}
}
