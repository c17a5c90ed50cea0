package services

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ochairo/aclmake/internal/domain/entities"
	"github.com/ochairo/aclmake/internal/domain/interfaces"
	"github.com/ochairo/aclmake/internal/domain/interfaces/gateways"
)

// DefaultProgressInterval is the reporter's redraw cadence
const DefaultProgressInterval = time.Second

// DefaultWorkers returns the worker count used when none is configured
func DefaultWorkers() int {
	return max(runtime.NumCPU(), 4)
}

// DispatcherConfig holds worker pool settings
type DispatcherConfig struct {
	Workers          int
	ProgressInterval time.Duration
	WorkingDir       string
	Env              map[string]string
	// ItemTimeout bounds a single verification command; zero means no bound
	ItemTimeout time.Duration
}

// Dispatcher runs one round of work items on a fixed pool of workers
type Dispatcher struct {
	runner   gateways.CommandRunner
	renderer ProgressRenderer
	logger   interfaces.Logger
	config   DispatcherConfig
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(
	runner gateways.CommandRunner,
	renderer ProgressRenderer,
	logger interfaces.Logger,
	config DispatcherConfig,
) *Dispatcher {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.ProgressInterval <= 0 {
		config.ProgressInterval = DefaultProgressInterval
	}
	if renderer == nil {
		renderer = NopRenderer{}
	}
	return &Dispatcher{
		runner:   runner,
		renderer: renderer,
		logger:   interfaces.OrNoOp(logger),
		config:   config,
	}
}

// Workers returns the configured pool size
func (d *Dispatcher) Workers() int { return d.config.Workers }

// RunRound executes items and blocks until the round drains or ctx is done.
//
// Items are queued in order on a closed channel; every worker exits when the
// channel is drained. On cancellation RunRound returns ErrInterrupted without
// waiting for in-flight commands, which are killed through their context.
func (d *Dispatcher) RunRound(ctx context.Context, label string, items []entities.WorkItem) (entities.RoundOutcome, error) {
	agg := NewAggregator(len(items))

	queue := make(chan entities.WorkItem, len(items))
	for _, item := range items {
		queue <- item
	}
	close(queue)

	var g errgroup.Group
	for w := 0; w < d.config.Workers; w++ {
		id := w
		g.Go(func() error {
			d.work(ctx, id, queue, agg)
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	d.logger.Debug("Round started",
		interfaces.F("round", label),
		interfaces.F("items", len(items)),
		interfaces.F("workers", d.config.Workers))

	if err := d.report(ctx, label, agg, done); err != nil {
		d.logger.Warn("Round interrupted",
			interfaces.F("round", label),
			interfaces.F("completed", agg.Completed()),
			interfaces.F("total", agg.Total()))
		return agg.Outcome(label), fmt.Errorf("%w: %v", entities.ErrInterrupted, err)
	}

	outcome := agg.Outcome(label)
	d.logger.Debug("Round finished",
		interfaces.F("round", label),
		interfaces.F("failed", len(outcome.Failures)),
		interfaces.F("duration", outcome.Duration))
	return outcome, nil
}

// report redraws progress on every tick until the workers are joined
func (d *Dispatcher) report(ctx context.Context, label string, agg *Aggregator, done <-chan struct{}) error {
	ticker := time.NewTicker(d.config.ProgressInterval)
	defer ticker.Stop()

	d.renderer.Render(agg.Snapshot(label))
	for {
		select {
		case <-ctx.Done():
			d.renderer.Finish(agg.Snapshot(label))
			return ctx.Err()
		case <-done:
			d.renderer.Finish(agg.Snapshot(label))
			if !agg.Done() {
				if err := ctx.Err(); err != nil {
					return err
				}
				return fmt.Errorf("workers stopped after %d of %d items", agg.Completed(), agg.Total())
			}
			return nil
		case <-ticker.C:
			d.renderer.Render(agg.Snapshot(label))
		}
	}
}

func (d *Dispatcher) work(ctx context.Context, id int, queue <-chan entities.WorkItem, agg *Aggregator) {
	for item := range queue {
		if ctx.Err() != nil {
			return
		}

		res := d.runner.Run(ctx, gateways.CommandRequest{
			Command:     item.Command,
			WorkingDir:  d.config.WorkingDir,
			Env:         d.config.Env,
			Timeout:     d.config.ItemTimeout,
			Description: item.Input.Path,
		})

		result := entities.RunResult{
			Item:     item,
			Worker:   id,
			Success:  res.Success,
			ExitCode: res.ExitCode,
			Err:      res.Error,
			Duration: res.Duration,
		}
		if !res.Success {
			result.Output = res.Output()
			d.logger.Debug("Verification failed",
				interfaces.F("input", item.Input.Path),
				interfaces.F("config", item.ConfigName()),
				interfaces.F("exit_code", res.ExitCode),
				interfaces.F("worker", id))
		}
		agg.Record(result)
	}
}
