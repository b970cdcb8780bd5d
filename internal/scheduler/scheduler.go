// Package scheduler runs the periodic feedback-training trigger. Training
// used to happen inline after every exchange; moving it to a daily cron job
// keeps it off the response path entirely.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Daily at 03:00 UTC, a quiet hour for a chat workload.
const trainSpec = "0 3 * * *"

type Scheduler struct {
	cron      *cron.Cron
	ctx       context.Context
	cancel    context.CancelFunc
	trainFunc func(ctx context.Context) error
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetTrainFunction sets the callback invoked on each training tick.
func (s *Scheduler) SetTrainFunction(f func(ctx context.Context) error) {
	s.trainFunc = f
}

func (s *Scheduler) Start() error {
	if s.trainFunc == nil {
		log.Println("train function not set, scheduler idle")
		return nil
	}

	_, err := s.cron.AddFunc(trainSpec, func() {
		log.Println("triggering feedback training run")
		if err := s.trainFunc(s.ctx); err != nil {
			log.Printf("feedback training failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Println("scheduler started, feedback training daily at 03:00 UTC")
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
}
