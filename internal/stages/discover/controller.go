// Copyright 2025 James Ross
package discover

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/fanout"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/resourceidentity"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/stages/stagecommon"
)

// Controller runs stage S1 once per schedule.
type Controller struct {
	Searcher ProjectSearcher
	Queue    stagecommon.Enqueuer
	Target   stagecommon.Targeter
	Log      *zap.Logger
	Workers  int
}

// Run discovers every project in scope, merges duplicates by OR-ing the
// api-enabled flags, and enqueues one task per merged project.
func (c *Controller) Run(ctx context.Context, scope string) error {
	found, err := c.Searcher.SearchProjects(ctx, scope)
	if err != nil {
		return err
	}

	merged := mergeProjects(found)
	c.Log.Info("discovered projects", zap.Int("raw", len(found)), zap.Int("merged", len(merged)))

	now := time.Now().UTC()
	errCount, err := fanout.Run(ctx, c.Log, merged, fanout.Options{Concurrency: c.Workers}, func(ctx context.Context, p resourceidentity.Project) error {
		payload, err := stagecommon.MarshalPayload(TaskPayload{
			ProjectID:             p.ProjectID,
			DataCatalogAPIEnabled: p.DataCatalogAPIEnabled,
			TargetAPIEnabled:      p.TargetAPIEnabled,
			CreatedAt:             now,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", p.ProjectID, err)
		}
		target, err := c.Target.Target(ctx, p.ProjectID, "")
		if err != nil {
			return fmt.Errorf("%s: %w", p.ProjectID, err)
		}
		if err := c.Queue.Enqueue(ctx, "", payload, target); err != nil {
			return fmt.Errorf("%s: %w", p.ProjectID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if errCount > 0 {
		c.Log.Warn("some discover tasks failed to enqueue", zap.Int("errors", errCount))
	}
	return nil
}

// mergeProjects deduplicates by ProjectID, OR-ing the api-enabled flags.
func mergeProjects(in []resourceidentity.Project) []resourceidentity.Project {
	byID := make(map[string]resourceidentity.Project)
	order := make([]string, 0, len(in))
	for _, p := range in {
		if existing, ok := byID[p.ProjectID]; ok {
			byID[p.ProjectID] = existing.Merge(p)
		} else {
			byID[p.ProjectID] = p
			order = append(order, p.ProjectID)
		}
	}
	out := make([]resourceidentity.Project, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return out
}
