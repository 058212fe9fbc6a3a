// Copyright 2025 James Ross
package fetchpolicies

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/resourceidentity"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/warehouse"
)

// Worker fetches one resource's IAM policy from the system that owns the
// task and records it, even when the policy is absent — absence is evidence.
type Worker struct {
	Legacy PolicyResolver
	Target PolicyResolver
	Store  Store
	Log    *zap.Logger
}

func (w *Worker) Handle(ctx context.Context, payload json.RawMessage) error {
	var task TaskPayload
	if err := json.Unmarshal(payload, &task); err != nil {
		return err
	}

	resolver := w.Legacy
	if task.System == resourceidentity.SystemTarget {
		resolver = w.Target
	}

	bindings, err := resolver.GetIamPolicy(ctx, task.ResourceName, task.ResourceKind)
	if err != nil {
		return err
	}
	if bindings == nil {
		bindings = []resourceidentity.Binding{}
	}

	encoded, err := json.Marshal(bindings)
	if err != nil {
		return err
	}

	row := warehouse.Row{task.ResourceName, string(task.System), string(encoded)}
	if err := w.Store.WriteRows(ctx, warehouse.TableIamPolicies, []warehouse.Row{row}, task.CreatedAt); err != nil {
		return err
	}
	w.Log.Info("fetched iam policy",
		zap.String("resourceName", task.ResourceName),
		zap.String("system", string(task.System)),
		zap.Int("bindings", len(bindings)))
	return nil
}
