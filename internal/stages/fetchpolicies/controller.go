// Copyright 2025 James Ross
package fetchpolicies

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
// enqueueing, sized from the quota passed to Controller.Run
// (cmd/migration-pipeline passes the catalog-management read quota, not an
// IAM quota).
type QueuePreparer interface {
	PrepareRegionQueues(ctx context.Context, regions []string, quota float64, percent float64) error
}

// Controller runs stage S4 once per schedule.
type Controller struct {
	Preparer QueuePreparer
	Queue    stagecommon.Enqueuer
	Target   stagecommon.Targeter
	Log      *zap.Logger
	Workers  int
}

// fetchJob is one (resource, system) unit fanned out to the queue.
type fetchJob struct {
	ref    ResourceRef
	system resourceidentity.ManagingSystem
}

// Run prepares per-region subqueues (including the target tag-template
// region; the base queue is not prepared) and enqueues one task per
// (resource, system) pair.
func (c *Controller) Run(ctx context.Context, resources []ResourceRef, quota float64, quotaPercent float64) error {
	var jobs []fetchJob
	regionSet := map[string]bool{}
	for _, r := range resources {
		for _, sys := range r.Systems {
			jobs = append(jobs, fetchJob{ref: r, system: sys})
			if region := fetchRegion(r.Kind, sys, r.TargetLocation); region != "" {
				regionSet[region] = true
			}
		}
	}
	regions := make([]string, 0, len(regionSet))
	for region := range regionSet {
		regions = append(regions, region)
	}
	if err := c.Preparer.PrepareRegionQueues(ctx, regions, quota, quotaPercent); err != nil {
		return err
	}

	now := time.Now().UTC()
	errCount, err := fanout.Run(ctx, c.Log, jobs, fanout.Options{Concurrency: c.Workers}, func(ctx context.Context, j fetchJob) error {
		region := fetchRegion(j.ref.Kind, j.system, j.ref.TargetLocation)
		resourceName := resourceNameFor(j.ref, j.system)
		payload, err := stagecommon.MarshalPayload(TaskPayload{
			ResourceKind: j.ref.Kind,
			ResourceName: resourceName,
			Location:     j.ref.TargetLocation,
			System:       j.system,
			CreatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", resourceName, err)
		}
		target, err := c.Target.Target(ctx, j.ref.ProjectID, region)
		if err != nil {
			return fmt.Errorf("%s: %w", resourceName, err)
		}
		if err := c.Queue.Enqueue(ctx, region, payload, target); err != nil {
			return fmt.Errorf("%s: %w", resourceName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if errCount > 0 {
		c.Log.Warn("some policy-fetch tasks failed to enqueue", zap.Int("errors", errCount))
	}
	return nil
}
