// Copyright 2025 James Ross
package convertvisibility

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/fanout"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/stages/stagecommon"
)

// Controller runs stage S5 once per schedule against a caller-supplied list
// of non-public tag templates drawn from the latest warehouse snapshot.
type Controller struct {
	Queue   stagecommon.Enqueuer
	Target  stagecommon.Targeter
	Log     *zap.Logger
	Workers int
}

func (c *Controller) Run(ctx context.Context, templates []TemplateRef) error {
	now := time.Now().UTC()
	errCount, err := fanout.Run(ctx, c.Log, templates, fanout.Options{Concurrency: c.Workers}, func(ctx context.Context, tpl TemplateRef) error {
		payload, err := stagecommon.MarshalPayload(TaskPayload{
			ResourceName: tpl.ResourceName,
			Location:     tpl.Location,
			CreatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", tpl.ResourceName, err)
		}
		target, err := c.Target.Target(ctx, "", tpl.Location)
		if err != nil {
			return fmt.Errorf("%s: %w", tpl.ResourceName, err)
		}
		if err := c.Queue.Enqueue(ctx, tpl.Location, payload, target); err != nil {
			return fmt.Errorf("%s: %w", tpl.ResourceName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if errCount > 0 {
		c.Log.Warn("some visibility tasks failed to enqueue", zap.Int("errors", errCount))
	}
	return nil
}
