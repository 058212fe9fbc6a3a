// Copyright 2025 James Ross
//
// Package fanout submits a large batch of payloads with bounded parallelism,
// aggregating failures in chunks instead of aborting on the first error.
// Grounded in the original TransferController.create_cloud_tasks's
// ThreadPoolExecutor(max_workers=N) + as_completed + error-tally pattern,
// expressed as a bounded Go worker pool.
package fanout

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Submit is called once per item; a non-nil error counts as a failure but
// never stops the remaining submissions.
type Submit[T any] func(ctx context.Context, item T) error

// Result is a chunk-flush summary logged periodically so callers processing
// hundreds of thousands of items don't hold every result in memory.
type Result struct {
	Submitted int
	Errors    int
}

// Options configures the engine's concurrency and chunking.
type Options struct {
	Concurrency int // bounded worker count, default 10
	ChunkSize   int // flush-and-log cadence, default 10000
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = 10
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = 10000
	}
	return o
}

// Run submits every item in items via submit, using a bounded pool of
// opts.Concurrency goroutines. It returns the total number of failures
// observed; zero means every item was submitted successfully. Cancellation
// of ctx lets outstanding submissions drain before Run returns.
func Run[T any](ctx context.Context, log *zap.Logger, items []T, opts Options, submit Submit[T]) (errorCount int, err error) {
	opts = opts.withDefaults()

	itemCh := make(chan T)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var failures int
	var processed int

	for i := 0; i < opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemCh {
				submitErr := submit(ctx, item)
				mu.Lock()
				processed++
				if submitErr != nil {
					failures++
					log.Warn("fan-out submission failed", zap.Error(submitErr))
				}
				if processed%opts.ChunkSize == 0 {
					log.Info("fan-out progress", zap.Int("processed", processed), zap.Int("errors", failures))
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, item := range items {
		select {
		case <-ctx.Done():
			break feed
		case itemCh <- item:
		}
	}
	close(itemCh)
	wg.Wait()

	if processed > 0 && processed%opts.ChunkSize != 0 {
		log.Info("fan-out complete", zap.Int("processed", processed), zap.Int("errors", failures))
	}

	if ctx.Err() != nil {
		return failures, ctx.Err()
	}
	return failures, nil
}
