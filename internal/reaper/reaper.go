// Copyright 2025 James Ross
//
// Package reaper recovers tasks stranded in a region's processing list when
// that region's dispatcher dies between BRPopLPush and delivery
// acknowledgement. Adapted from the teacher's per-worker heartbeat reaper:
// where the teacher scans jobqueue:worker:*:processing lists against a
// per-worker heartbeat key, this reaper scans one processing list per
// configured region against that region's dispatcher heartbeat key, since
// each region runs a single dispatcher rather than a pool of workers.
package reaper

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/obs"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/queuepub"
)

// Reaper periodically requeues tasks left behind by a dead dispatcher.
type Reaper struct {
	rdb       *redis.Client
	log       *zap.Logger
	baseQueue string
	regions   []string
	interval  time.Duration
}

func New(rdb *redis.Client, log *zap.Logger, baseQueue string, regions []string, interval time.Duration) *Reaper {
	if interval == 0 {
		interval = 30 * time.Second
	}
	return &Reaper{rdb: rdb, log: log, baseQueue: baseQueue, regions: regions, interval: interval}
}

// Run scans every region on a fixed interval until ctx is done.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.scanOnce(ctx)
		}
	}
}

func (r *Reaper) scanOnce(ctx context.Context) {
	for _, region := range r.regions {
		r.scanRegion(ctx, region)
	}
}

func (r *Reaper) scanRegion(ctx context.Context, region string) {
	hbKey := queuepub.HeartbeatKey(r.baseQueue, region)
	exists, err := r.rdb.Exists(ctx, hbKey).Result()
	if err != nil {
		r.log.Warn("reaper heartbeat check failed", zap.String("region", region), zap.Error(err))
		return
	}
	if exists == 1 {
		return // dispatcher for this region is alive
	}

	processingKey := queuepub.ProcessingListKey(r.baseQueue, region)
	tasksKey := queuepub.TasksKey(r.baseQueue, region)
	for {
		raw, err := r.rdb.RPop(ctx, processingKey).Result()
		if err == redis.Nil {
			return
		}
		if err != nil {
			r.log.Warn("reaper rpop error", zap.String("region", region), zap.Error(err))
			return
		}
		if err := r.rdb.LPush(ctx, tasksKey, raw).Err(); err != nil {
			r.log.Error("reaper requeue failed", zap.String("region", region), zap.Error(err))
			continue
		}
		obs.ReaperRecovered.WithLabelValues(region).Inc()
		r.log.Warn("requeued task abandoned by dead dispatcher", zap.String("region", region))
	}
}
