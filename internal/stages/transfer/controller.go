// Copyright 2025 James Ross
package transfer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/fanout"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/stages/stagecommon"
)

// Controller runs stage S6 against a caller-supplied list of legacy-managed
// resources in scope, drawn from the latest entry-group and tag-template
// snapshots. Transfer
// is a legacy-side server operation, so every task goes on the base queue.
type Controller struct {
	Queue   stagecommon.Enqueuer
	Target  stagecommon.Targeter
	Log     *zap.Logger
	Workers int
}

func (c *Controller) Run(ctx context.Context, resources []ResourceRef) error {
	now := time.Now().UTC()
	errCount, err := fanout.Run(ctx, c.Log, resources, fanout.Options{Concurrency: c.Workers}, func(ctx context.Context, r ResourceRef) error {
		payload, err := stagecommon.MarshalPayload(TaskPayload{
			ResourceName: r.ResourceName,
			CreatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", r.ResourceName, err)
		}
		target, err := c.Target.Target(ctx, "", "")
		if err != nil {
			return fmt.Errorf("%s: %w", r.ResourceName, err)
		}
		if err := c.Queue.Enqueue(ctx, "", payload, target); err != nil {
			return fmt.Errorf("%s: %w", r.ResourceName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if errCount > 0 {
		c.Log.Warn("some transfer tasks failed to enqueue", zap.Int("errors", errCount))
	}
	return nil
}
