// Copyright 2025 James Ross
package cleanup

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/migerr"
)

// Worker re-confirms a legacy resource's transferred flag before deleting
// it. PermissionDenied on the confirm read ends the task with 200 "not
// found" — the resource is already gone or inaccessible either way.
type Worker struct {
	Cleaner LegacyCleaner
	Log     *zap.Logger
}

func (w *Worker) Handle(ctx context.Context, payload json.RawMessage) (Outcome, error) {
	var task TaskPayload
	if err := json.Unmarshal(payload, &task); err != nil {
		return Outcome{}, err
	}

	transferred, err := w.Cleaner.ConfirmTransferred(ctx, task.ResourceName)
	if err != nil {
		if migerr.KindOf(err) == migerr.KindUnauthorized {
			w.Log.Info("permission denied confirming transfer, treating as not found", zap.String("resourceName", task.ResourceName))
			return Outcome{Status: 200, Message: "not found"}, nil
		}
		return Outcome{Status: 500, Message: "retry"}, err
	}
	if !transferred {
		w.Log.Info("not transferred, skipping delete", zap.String("resourceName", task.ResourceName))
		return Outcome{Status: 200, Message: "not transferred"}, nil
	}

	if err := w.Cleaner.DeleteResource(ctx, task.ResourceName, true); err != nil {
		if migerr.KindOf(err) == migerr.KindNotFound || migerr.KindOf(err) == migerr.KindUnauthorized {
			w.Log.Info("already deleted", zap.String("resourceName", task.ResourceName))
			return Outcome{Status: 200, Message: "not found"}, nil
		}
		return Outcome{Status: 500, Message: "retry"}, err
	}
	w.Log.Info("deleted legacy resource", zap.String("resourceName", task.ResourceName))
	return Outcome{Status: 200, Message: "deleted"}, nil
}
