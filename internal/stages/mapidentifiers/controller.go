// Copyright 2025 James Ross
package mapidentifiers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/fanout"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/resourceidentity"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/stages/stagecommon"
)

// QueuePreparer prepares one rate-limited subqueue per region ahead of
// enqueueing.
type QueuePreparer interface {
	PrepareRegionQueues(ctx context.Context, regions []string, quota float64, percent float64) error
}

// ResourceRef is one resource the controller fans a task out for.
type ResourceRef struct {
	Kind      resourceidentity.ResourceKind
	ProjectID string
	Location  string
	LocalID   string
}

// Controller runs stage S3 once per schedule.
type Controller struct {
	Preparer QueuePreparer
	Queue    stagecommon.Enqueuer
	Target   stagecommon.Targeter
	Log      *zap.Logger
	Workers  int
}

// Run ensures every observed region has a rate-limited subqueue sized from
// quota, then enqueues one task per resource routed by its own location.
func (c *Controller) Run(ctx context.Context, resources []ResourceRef, quota float64, quotaPercent float64) error {
	regions := distinctRegions(resources)
	if err := c.Preparer.PrepareRegionQueues(ctx, regions, quota, quotaPercent); err != nil {
		return err
	}

	now := time.Now().UTC()
	errCount, err := fanout.Run(ctx, c.Log, resources, fanout.Options{Concurrency: c.Workers}, func(ctx context.Context, r ResourceRef) error {
		identity := fmt.Sprintf("%s/%s/%s", r.ProjectID, r.Location, r.LocalID)
		payload, err := stagecommon.MarshalPayload(TaskPayload{
			ResourceKind: r.Kind,
			ProjectID:    r.ProjectID,
			Location:     r.Location,
			LocalID:      r.LocalID,
			CreatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", identity, err)
		}
		target, err := c.Target.Target(ctx, r.ProjectID, r.Location)
		if err != nil {
			return fmt.Errorf("%s: %w", identity, err)
		}
		if err := c.Queue.Enqueue(ctx, r.Location, payload, target); err != nil {
			return fmt.Errorf("%s: %w", identity, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if errCount > 0 {
		c.Log.Warn("some mapping tasks failed to enqueue", zap.Int("errors", errCount))
	}
	return nil
}

func distinctRegions(resources []ResourceRef) []string {
	seen := make(map[string]bool)
	var regions []string
	for _, r := range resources {
		if !seen[r.Location] {
			seen[r.Location] = true
			regions = append(regions, r.Location)
		}
	}
	return regions
}
