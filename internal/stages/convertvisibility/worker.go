// Copyright 2025 James Ross
package convertvisibility

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/migerr"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/resourceidentity"
)

// Worker flips a single tag template's isPubliclyReadable flag, tolerating
// a template that is already public as a no-op.
type Worker struct {
	Resolver VisibilityResolver
	Log      *zap.Logger
}

// Handle returns the classified Outcome alongside an error that is non-nil
// whenever the task failed. A permission-denied response from either
// collaborator call is a client-side error (400), not a silently swallowed
// success; any other failure carries 500 so the queue redelivers.
func (w *Worker) Handle(ctx context.Context, payload json.RawMessage) (Outcome, error) {
	var task TaskPayload
	if err := json.Unmarshal(payload, &task); err != nil {
		return Outcome{}, err
	}

	summary, err := w.Resolver.GetResource(ctx, task.ResourceName, resourceidentity.KindTagTemplate)
	if err != nil {
		if migerr.KindOf(err) == migerr.KindUnauthorized {
			w.Log.Warn("permission denied reading template", zap.String("resourceName", task.ResourceName), zap.Error(err))
			return Outcome{Status: 400, Message: err.Error()}, err
		}
		return Outcome{Status: 500, Message: "retry"}, err
	}
	if summary.IsPubliclyReadable {
		w.Log.Info("already publicly readable, no-op", zap.String("resourceName", task.ResourceName))
		return Outcome{Status: 200, Message: "already publicly readable"}, nil
	}

	if err := w.Resolver.SetPubliclyReadable(ctx, task.ResourceName, true); err != nil {
		if migerr.KindOf(err) == migerr.KindUnauthorized {
			w.Log.Warn("permission denied converting visibility", zap.String("resourceName", task.ResourceName), zap.Error(err))
			return Outcome{Status: 400, Message: err.Error()}, err
		}
		return Outcome{Status: 500, Message: "retry"}, err
	}
	w.Log.Info("converted to publicly readable", zap.String("resourceName", task.ResourceName))
	return Outcome{Status: 200, Message: "converted to publicly readable"}, nil
}
