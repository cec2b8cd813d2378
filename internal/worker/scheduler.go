package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vipogroup/vipo-api/internal/utils"
)

type task struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context) error
}

// Scheduler runs registered tasks on their own tickers until Run's context
// is cancelled.
type Scheduler struct {
	tasks []task
	wg    sync.WaitGroup
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Every registers fn. Non-positive intervals disable the task.
func (s *Scheduler) Every(name string, interval time.Duration, fn func(ctx context.Context) error) {
	if interval <= 0 {
		utils.Zlog.Info("Scheduled task disabled", zap.String("task", name))
		return
	}
	s.tasks = append(s.tasks, task{name: name, interval: interval, fn: fn})
}

func (s *Scheduler) Run(ctx context.Context) {
	for _, t := range s.tasks {
		s.wg.Add(1)
		go func(t task) {
			defer s.wg.Done()
			ticker := time.NewTicker(t.interval)
			defer ticker.Stop()

			utils.Zlog.Info("Scheduled task registered",
				zap.String("task", t.name),
				zap.Duration("interval", t.interval))
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := t.fn(ctx); err != nil {
						utils.Zlog.Error("Scheduled task failed", zap.String("task", t.name), zap.Error(err))
					}
				}
			}
		}(t)
	}
}

// Wait blocks until every task goroutine has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
