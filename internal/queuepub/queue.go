// Copyright 2025 James Ross
//
// Package queuepub addresses per-region task subqueues backed by Redis. A
// queue is identified by (project, region); per-region RPS limits encode a
// share of an upstream API quota, generalizing the teacher's per-priority
// job lists into per-region subqueues.
package queuepub

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/migerr"
)

// Task is one unit of work addressed to a worker's HTTP endpoint.
type Task struct {
	ID         string          `json:"id"`
	Payload    json.RawMessage `json:"payload"`
	TargetURL  string          `json:"targetUrl"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
}

// Config configures queue naming and warm-up behavior.
type Config struct {
	BaseQueueName   string        `mapstructure:"base_queue_name"`
	QueueWarmup     time.Duration `mapstructure:"queue_warmup"`
	ServiceTemplate string        `mapstructure:"service_url_template"` // e.g. "https://%s-%d.%s.run.app"
}

// Publisher is the queue-side half of C2: queue lifecycle + enqueue.
type Publisher struct {
	cfg Config
	rdb *redis.Client
	log *zap.Logger

	projectNumbers sync.Map // projectID -> int64, mirrors functools.cache on get_project_number
}

// New returns a Publisher for cfg. A zero QueueWarmup makes EnsureQueue
// return right after creating a queue, without the settle delay.
func New(cfg Config, rdb *redis.Client, log *zap.Logger) *Publisher {
	return &Publisher{cfg: cfg, rdb: rdb, log: log}
}

func regionQueueName(base, region string) string {
	if region == "" {
		return base
	}
	return fmt.Sprintf("%s-%s", base, region)
}

func metaKey(queueName string) string  { return "queue:" + queueName + ":meta" }
func tasksKey(queueName string) string { return "queue:" + queueName + ":tasks" }
func bucketKey(queueName string) string { return "queue:" + queueName + ":tokens" }
func heartbeatKey(queueName string) string { return "queue:" + queueName + ":dispatcher_heartbeat" }

// ProcessingListKey returns the Redis key a region's in-flight tasks sit in
// between BRPopLPush and delivery acknowledgement, exported so the reaper can
// scan it without reaching into this package's naming internals.
func ProcessingListKey(base, region string) string {
	return tasksKey(regionQueueName(base, region)) + ":processing"
}

// HeartbeatKey returns the Redis key a region's dispatcher refreshes on every
// poll, exported so the reaper can tell a live dispatcher from a dead one.
func HeartbeatKey(base, region string) string {
	return heartbeatKey(regionQueueName(base, region))
}

// TasksKey returns the Redis key a region's pending-task list lives in,
// exported so the reaper can requeue recovered tasks onto it.
func TasksKey(base, region string) string {
	return tasksKey(regionQueueName(base, region))
}

// EnsureQueue creates the region subqueue if absent with the given RPS, then
// sleeps QueueWarmup before returning, mirroring CloudTaskPublisher.create_queue's
// post-create settle delay.
func (p *Publisher) EnsureQueue(ctx context.Context, region string, rps float64) error {
	name := regionQueueName(p.cfg.BaseQueueName, region)
	exists, err := p.queueExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := p.rdb.HSet(ctx, metaKey(name), map[string]any{
		"rps":        rps,
		"created_at": time.Now().UTC().Format(time.RFC3339),
		"region":     region,
	}).Err(); err != nil {
		return migerr.Wrap(migerr.KindQueueUnavailable, "create queue "+name, err)
	}
	if err := p.rdb.Set(ctx, bucketKey(name), rps, 0).Err(); err != nil {
		return migerr.Wrap(migerr.KindQueueUnavailable, "seed token bucket for "+name, err)
	}
	p.log.Info("created queue", zap.String("queue", name), zap.Float64("rps", rps))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.cfg.QueueWarmup):
	}
	return nil
}

func (p *Publisher) queueExists(ctx context.Context, name string) (bool, error) {
	n, err := p.rdb.Exists(ctx, metaKey(name)).Result()
	if err != nil {
		return false, migerr.Wrap(migerr.KindQueueUnavailable, "check queue existence", err)
	}
	return n > 0, nil
}

// UpdateQueue changes a queue's rate limit in place.
func (p *Publisher) UpdateQueue(ctx context.Context, region string, rps float64) error {
	name := regionQueueName(p.cfg.BaseQueueName, region)
	if err := p.rdb.HSet(ctx, metaKey(name), "rps", rps).Err(); err != nil {
		return migerr.Wrap(migerr.KindQueueUnavailable, "update queue "+name, err)
	}
	return nil
}

// PurgeQueue drops all pending tasks; the queue continues to exist.
func (p *Publisher) PurgeQueue(ctx context.Context, region string) error {
	name := regionQueueName(p.cfg.BaseQueueName, region)
	if err := p.rdb.Del(ctx, tasksKey(name)).Err(); err != nil {
		return migerr.Wrap(migerr.KindQueueUnavailable, "purge queue "+name, err)
	}
	return nil
}

// PrepareRegionQueues ensures one subqueue per region exists with RPS derived
// from quota and percent, purging any queue that already exists (fresh run).
func (p *Publisher) PrepareRegionQueues(ctx context.Context, regions []string, quota float64, percent float64) error {
	rps := math.Ceil(quota * percent / 100)
	for _, region := range regions {
		name := regionQueueName(p.cfg.BaseQueueName, region)
		exists, err := p.queueExists(ctx, name)
		if err != nil {
			return err
		}
		if exists {
			if err := p.PurgeQueue(ctx, region); err != nil {
				return err
			}
			continue
		}
		if err := p.EnsureQueue(ctx, region, rps); err != nil {
			return err
		}
	}
	return nil
}

// Enqueue posts payload as a task on the given region's subqueue, addressed
// to target. Every call assigns the task a fresh random ID, so enqueueing the
// same payload twice produces two tasks; duplicates are not detected.
func (p *Publisher) Enqueue(ctx context.Context, region string, payload json.RawMessage, target string) error {
	name := regionQueueName(p.cfg.BaseQueueName, region)
	exists, err := p.queueExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return migerr.New(migerr.KindQueueUnavailable, "queue "+name+" does not exist")
	}
	task := Task{
		ID:         uuid.NewString(),
		Payload:    payload,
		TargetURL:  target,
		EnqueuedAt: time.Now().UTC(),
	}
	body, err := json.Marshal(task)
	if err != nil {
		return migerr.Wrap(migerr.KindUpstream, "marshal task", err)
	}
	if err := p.rdb.LPush(ctx, tasksKey(name), body).Err(); err != nil {
		return migerr.Wrap(migerr.KindQueueUnavailable, "enqueue to "+name, err)
	}
	return nil
}

// Depth reports the number of pending tasks on a region's subqueue, used by
// the metrics updater to publish per-region queue depth.
func (p *Publisher) Depth(ctx context.Context, region string) (int64, error) {
	name := regionQueueName(p.cfg.BaseQueueName, region)
	n, err := p.rdb.LLen(ctx, tasksKey(name)).Result()
	if err != nil {
		return 0, migerr.Wrap(migerr.KindQueueUnavailable, "measure depth of "+name, err)
	}
	return n, nil
}

// ProjectNumber resolves and caches a project's numeric identifier via
// resolve, mirroring functools.cache on get_project_number.
func (p *Publisher) ProjectNumber(ctx context.Context, projectID string, resolve func(context.Context, string) (int64, error)) (int64, error) {
	if v, ok := p.projectNumbers.Load(projectID); ok {
		return v.(int64), nil
	}
	n, err := resolve(ctx, projectID)
	if err != nil {
		return 0, err
	}
	p.projectNumbers.Store(projectID, n)
	return n, nil
}

// ServiceURL renders the authenticated HTTP target a task is delivered to:
// https://{service}-{projectNumber}.{region}.run.app
func (p *Publisher) ServiceURL(service string, projectNumber int64, region string) string {
	tmpl := p.cfg.ServiceTemplate
	if tmpl == "" {
		tmpl = "https://%s-%d.%s.run.app"
	}
	return fmt.Sprintf(tmpl, service, projectNumber, region)
}
