// Copyright 2025 James Ross
package enumerate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/fanout"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/stages/stagecommon"
)

// Controller runs stage S2 once per schedule.
type Controller struct {
	Store   Store
	Queue   stagecommon.Enqueuer
	Target  stagecommon.Targeter
	Log     *zap.Logger
	Workers int
}

// Run enqueues six initial enumeration tasks for each project in
// projectIDs.
func (c *Controller) Run(ctx context.Context, projectIDs []string) error {
	now := time.Now().UTC()
	type unit struct {
		projectID string
		filter    TaskPayload
	}
	var units []unit
	for _, pid := range projectIDs {
		for _, f := range InitialFilters() {
			f.ProjectID = pid
			f.CreatedAt = now
			units = append(units, unit{projectID: pid, filter: f})
		}
	}

	errCount, err := fanout.Run(ctx, c.Log, units, fanout.Options{Concurrency: c.Workers}, func(ctx context.Context, u unit) error {
		payload, err := stagecommon.MarshalPayload(u.filter)
		if err != nil {
			return fmt.Errorf("%s: %w", u.projectID, err)
		}
		target, err := c.Target.Target(ctx, u.projectID, "")
		if err != nil {
			return fmt.Errorf("%s: %w", u.projectID, err)
		}
		if err := c.Queue.Enqueue(ctx, "", payload, target); err != nil {
			return fmt.Errorf("%s: %w", u.projectID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if errCount > 0 {
		c.Log.Warn("some enumerate tasks failed to enqueue", zap.Int("errors", errCount))
	}
	return nil
}
