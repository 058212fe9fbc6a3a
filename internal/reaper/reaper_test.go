package reaper

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/queuepub"
)

func TestReaperRequeuesWithoutHeartbeat(t *testing.T) {
	mr, _ := miniredis.Run()
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	log, _ := zap.NewDevelopment()

	ctx := context.Background()
	region := "us-central1"
	processingKey := queuepub.ProcessingListKey("catalog-transfer", region)
	if err := rdb.LPush(ctx, processingKey, `{"id":"t1"}`).Err(); err != nil {
		t.Fatal(err)
	}

	rep := New(rdb, log, "catalog-transfer", []string{region}, time.Second)
	rep.scanOnce(ctx)

	n, _ := rdb.LLen(ctx, queuepub.TasksKey("catalog-transfer", region)).Result()
	if n != 1 {
		t.Fatalf("expected 1 requeued task, got %d", n)
	}
	remaining, _ := rdb.LLen(ctx, processingKey).Result()
	if remaining != 0 {
		t.Fatalf("expected processing list drained, got %d remaining", remaining)
	}
}

func TestReaperLeavesLiveDispatcherAlone(t *testing.T) {
	mr, _ := miniredis.Run()
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	log, _ := zap.NewDevelopment()

	ctx := context.Background()
	region := "us-central1"
	processingKey := queuepub.ProcessingListKey("catalog-transfer", region)
	if err := rdb.LPush(ctx, processingKey, `{"id":"t1"}`).Err(); err != nil {
		t.Fatal(err)
	}
	if err := rdb.Set(ctx, queuepub.HeartbeatKey("catalog-transfer", region), time.Now().Format(time.RFC3339), time.Minute).Err(); err != nil {
		t.Fatal(err)
	}

	rep := New(rdb, log, "catalog-transfer", []string{region}, time.Second)
	rep.scanOnce(ctx)

	n, _ := rdb.LLen(ctx, processingKey).Result()
	if n != 1 {
		t.Fatalf("expected processing list untouched while dispatcher is alive, got %d", n)
	}
}
