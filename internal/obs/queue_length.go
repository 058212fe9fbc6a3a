// Copyright 2025 James Ross
package obs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DepthReader is the subset of the queue publisher needed to sample
// per-region subqueue depth.
type DepthReader interface {
	Depth(ctx context.Context, region string) (int64, error)
}

// StartQueueDepthUpdater samples each region's subqueue depth on interval
// and publishes it to the QueueDepth gauge.
func StartQueueDepthUpdater(ctx context.Context, reader DepthReader, regions []string, interval time.Duration, log *zap.Logger) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, region := range regions {
					n, err := reader.Depth(ctx, region)
					if err != nil {
						log.Debug("queue depth poll error", String("region", region), Err(err))
						continue
					}
					QueueDepth.WithLabelValues(region).Set(float64(n))
				}
			}
		}
	}()
}
