// Copyright 2025 James Ross
package queuepub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPublisher(t *testing.T) (*Publisher, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	cfg := Config{BaseQueueName: "map-identifiers", QueueWarmup: 0}
	return New(cfg, rdb, zap.NewNop()), rdb
}

func TestEnsureQueueCreatesMetaAndBucket(t *testing.T) {
	p, rdb := newTestPublisher(t)
	ctx := context.Background()

	require.NoError(t, p.EnsureQueue(ctx, "us-west1", 5))

	exists, err := rdb.Exists(ctx, metaKey("map-identifiers-us-west1")).Result()
	require.NoError(t, err)
	require.Equal(t, int64(1), exists)
}

func TestEnsureQueueIsIdempotent(t *testing.T) {
	p, _ := newTestPublisher(t)
	ctx := context.Background()

	require.NoError(t, p.EnsureQueue(ctx, "us-west1", 5))
	require.NoError(t, p.UpdateQueue(ctx, "us-west1", 99))
	require.NoError(t, p.EnsureQueue(ctx, "us-west1", 5)) // should be a no-op, not overwrite
}

func TestEnqueueRequiresExistingQueue(t *testing.T) {
	p, _ := newTestPublisher(t)
	ctx := context.Background()

	err := p.Enqueue(ctx, "us-west1", json.RawMessage(`{}`), "https://example.invalid")
	require.Error(t, err)
}

func TestEnqueuePushesTaskOntoRegionList(t *testing.T) {
	p, rdb := newTestPublisher(t)
	ctx := context.Background()

	require.NoError(t, p.EnsureQueue(ctx, "us-west1", 5))
	require.NoError(t, p.Enqueue(ctx, "us-west1", json.RawMessage(`{"resourceName":"eg1"}`), "https://svc.example/handle"))

	n, err := rdb.LLen(ctx, tasksKey("map-identifiers-us-west1")).Result()
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestPrepareRegionQueuesDerivesRPSFromQuota(t *testing.T) {
	p, rdb := newTestPublisher(t)
	ctx := context.Background()

	require.NoError(t, p.PrepareRegionQueues(ctx, []string{"us-west1", "us-east1"}, 600, 50))

	rps, err := rdb.HGet(ctx, metaKey("map-identifiers-us-west1"), "rps").Result()
	require.NoError(t, err)
	require.Equal(t, "300", rps)
}

func TestPrepareRegionQueuesPurgesExisting(t *testing.T) {
	p, rdb := newTestPublisher(t)
	ctx := context.Background()

	require.NoError(t, p.EnsureQueue(ctx, "us-west1", 5))
	require.NoError(t, p.Enqueue(ctx, "us-west1", json.RawMessage(`{}`), "https://svc.example/handle"))

	require.NoError(t, p.PrepareRegionQueues(ctx, []string{"us-west1"}, 600, 50))

	n, err := rdb.LLen(ctx, tasksKey("map-identifiers-us-west1")).Result()
	require.NoError(t, err)
	require.Equal(t, int64(0), n)
}

func TestProjectNumberIsCached(t *testing.T) {
	p, _ := newTestPublisher(t)
	ctx := context.Background()
	calls := 0
	resolve := func(context.Context, string) (int64, error) {
		calls++
		return 12345, nil
	}

	n1, err := p.ProjectNumber(ctx, "prj1", resolve)
	require.NoError(t, err)
	n2, err := p.ProjectNumber(ctx, "prj1", resolve)
	require.NoError(t, err)

	require.Equal(t, int64(12345), n1)
	require.Equal(t, n1, n2)
	require.Equal(t, 1, calls)
}

func TestServiceURLTemplate(t *testing.T) {
	p, _ := newTestPublisher(t)
	url := p.ServiceURL("find-resource-names", 12345, "us-west1")
	require.Equal(t, "https://find-resource-names-12345.us-west1.run.app", url)
}

func TestRunOneDeliversTaskAndDrainsProcessingList(t *testing.T) {
	p, rdb := newTestPublisher(t)
	ctx := context.Background()
	require.NoError(t, p.EnsureQueue(ctx, "us-west1", 1000))

	var received []byte
	srv := newTestServer(t, func(body []byte) int {
		received = body
		return 200
	})
	defer srv.Close()

	require.NoError(t, p.Enqueue(ctx, "us-west1", json.RawMessage(`{"x":1}`), srv.URL))

	d := NewDispatcher(rdb, zap.NewNop())
	ok, err := d.RunOne(ctx, "map-identifiers", "us-west1", time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"x":1}`, string(received))

	n, err := rdb.LLen(ctx, tasksKey("map-identifiers-us-west1")+":processing").Result()
	require.NoError(t, err)
	require.Equal(t, int64(0), n)
}
