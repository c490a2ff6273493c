// Package pipeline holds the shared producer/worker scaffold used by
// all five pipeline stages. Each stage supplies a Fetch func
// (the producer's eligibility query) and a Process func (the
// worker's read-modify-write unit of work); Runner drives the
// ticker, the bounded worker pool, and per-item error logging the
// same way across every stage.
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Runner ticks every PollEvery, fetches up to BatchSize eligible
// units, and hands them to a pool of Workers goroutines that each
// call Process on one unit at a time.
type Runner[T any] struct {
	Name       string
	PollEvery  time.Duration
	BatchSize  int
	Workers    int
	Fetch      func(ctx context.Context, limit int) ([]T, error)
	Process    func(ctx context.Context, item T) error
}

func (r *Runner[T]) Run(ctx context.Context) {
	workers := r.Workers
	if workers <= 0 {
		workers = 1
	}

	log.Info().
		Str("stage", r.Name).
		Dur("poll_every", r.PollEvery).
		Int("batch_size", r.BatchSize).
		Int("workers", workers).
		Msg("pipeline stage started")

	ticker := time.NewTicker(r.PollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("stage", r.Name).Msg("pipeline stage stopping")
			return
		case <-ticker.C:
			if err := r.tick(ctx, workers); err != nil {
				log.Error().Err(err).Str("stage", r.Name).Msg("producer fetch failed")
			}
		}
	}
}

func (r *Runner[T]) tick(ctx context.Context, workers int) error {
	items, err := r.Fetch(ctx, r.BatchSize)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	log.Debug().Str("stage", r.Name).Int("count", len(items)).Msg("dispatching units")

	sem := make(chan struct{}, workers)
	done := make(chan struct{}, len(items))

	for _, item := range items {
		item := item
		sem <- struct{}{}
		go func() {
			defer func() { <-sem; done <- struct{}{} }()
			start := time.Now()
			if err := r.Process(ctx, item); err != nil {
				log.Error().Err(err).Str("stage", r.Name).Dur("duration", time.Since(start)).Msg("unit processing failed")
				return
			}
			log.Debug().Str("stage", r.Name).Dur("duration", time.Since(start)).Msg("unit processed")
		}()
	}

	for i := 0; i < len(items); i++ {
		<-done
	}
	return nil
}
