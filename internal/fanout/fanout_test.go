// Copyright 2025 James Ross
package fanout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunAllSucceedReportsZeroErrors(t *testing.T) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}
	var seen int64
	errCount, err := Run(context.Background(), zap.NewNop(), items, Options{Concurrency: 5}, func(ctx context.Context, item int) error {
		atomic.AddInt64(&seen, 1)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 0, errCount)
	require.Equal(t, int64(100), seen)
}

func TestRunTalliesFailuresWithoutAborting(t *testing.T) {
	items := make([]int, 20)
	for i := range items {
		items[i] = i
	}
	var attempted int64
	errCount, err := Run(context.Background(), zap.NewNop(), items, Options{Concurrency: 4}, func(ctx context.Context, item int) error {
		atomic.AddInt64(&attempted, 1)
		if item%3 == 0 {
			return errors.New("boom")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(20), attempted) // every item still attempted
	require.Equal(t, 7, errCount)          // 0,3,6,9,12,15,18
}

func TestRunRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	items := []int{1, 2, 3}
	_, err := Run(ctx, zap.NewNop(), items, Options{}, func(ctx context.Context, item int) error {
		return nil
	})
	require.Error(t, err)
}
