// Copyright 2025 James Ross
package queuepub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/migerr"
)

// tokenBucketScript atomically refills (rate * elapsed) and attempts to take
// one token, returning 1 on success. Adapted from the teacher's Lua-script
// token bucket in advanced-rate-limiting, simplified to a single global rate
// per queue rather than per-tenant/per-priority scopes.
const tokenBucketScript = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local now = tonumber(ARGV[2])
local capacity = tonumber(ARGV[3])

local bucket = redis.call('HMGET', key .. ':state', 'tokens', 'ts')
local tokens = tonumber(bucket[1]) or capacity
local ts = tonumber(bucket[2]) or now

local elapsed = math.max(0, now - ts)
tokens = math.min(capacity, tokens + elapsed * rate)

if tokens >= 1 then
	tokens = tokens - 1
	redis.call('HMSET', key .. ':state', 'tokens', tokens, 'ts', now)
	return 1
end
redis.call('HMSET', key .. ':state', 'tokens', tokens, 'ts', now)
return 0
`

// Dispatcher pulls tasks off region subqueues and delivers them over HTTP,
// honoring each region's rate limit. It is the in-process stand-in for the
// managed queue service's own delivery worker.
type Dispatcher struct {
	rdb        *redis.Client
	log        *zap.Logger
	httpClient *http.Client
	limiters   map[string]*rate.Limiter // in-process mirror of each region's RPS, keyed by queue name
	script     *redis.Script
}

func NewDispatcher(rdb *redis.Client, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		rdb:        rdb,
		log:        log,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiters:   make(map[string]*rate.Limiter),
		script:     redis.NewScript(tokenBucketScript),
	}
}

// limiterFor lazily creates the in-process limiter mirroring a queue's RPS.
func (d *Dispatcher) limiterFor(queueName string, rps float64) *rate.Limiter {
	if l, ok := d.limiters[queueName]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	d.limiters[queueName] = l
	return l
}

// RunOne moves a single task from the named region subqueue's tasks list
// onto its processing list and delivers it, blocking up to timeout. Returns (false, nil) when the
// queue was empty.
func (d *Dispatcher) RunOne(ctx context.Context, baseQueue, region string, timeout time.Duration) (bool, error) {
	name := regionQueueName(baseQueue, region)
	processingKey := tasksKey(name) + ":processing"

	// Refresh the liveness key the reaper watches before blocking on the pop,
	// so a dispatcher stuck waiting on an empty queue still reads as alive.
	d.rdb.Set(ctx, heartbeatKey(name), time.Now().UTC().Format(time.RFC3339), 3*timeout)

	raw, err := d.rdb.BRPopLPush(ctx, tasksKey(name), processingKey, timeout).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, migerr.Wrap(migerr.KindQueueUnavailable, "dequeue from "+name, err)
	}

	var task Task
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		d.rdb.LRem(ctx, processingKey, 1, raw)
		return true, migerr.Wrap(migerr.KindFormatFault, "unmarshal task", err)
	}

	rpsStr, _ := d.rdb.HGet(ctx, metaKey(name), "rps").Result()
	var rps float64
	fmt.Sscanf(rpsStr, "%g", &rps)
	if rps <= 0 {
		rps = 1
	}
	// In-process throttle mirrors the queue's RPS so this dispatcher doesn't
	// hammer the Lua script once the bucket is known to be empty.
	if err := d.limiterFor(name, rps).Wait(ctx); err != nil {
		return true, err
	}
	allowed, err := d.script.Run(ctx, d.rdb, []string{name}, rps, float64(time.Now().UnixNano())/1e9, rps).Int()
	if err != nil {
		return true, migerr.Wrap(migerr.KindQueueUnavailable, "consume token bucket", err)
	}
	if allowed == 0 {
		d.rdb.LPush(ctx, tasksKey(name), raw)
		d.rdb.LRem(ctx, processingKey, 1, raw)
		return true, nil
	}

	body, _ := json.Marshal(task.Payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, task.TargetURL, bytes.NewReader(body))
	if err != nil {
		return true, migerr.Wrap(migerr.KindUpstream, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		d.log.Warn("task delivery failed, leaving for redelivery", zap.String("queue", name), zap.Error(err))
		return true, migerr.Wrap(migerr.KindUpstream, "deliver task", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		d.rdb.LRem(ctx, processingKey, 1, raw)
		return true, nil
	}
	d.log.Warn("worker returned non-2xx, leaving for redelivery", zap.String("queue", name), zap.Int("status", resp.StatusCode))
	return true, migerr.New(migerr.KindUpstream, fmt.Sprintf("worker responded %d", resp.StatusCode))
}
