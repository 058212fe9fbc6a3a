// Copyright 2025 James Ross
package mapidentifiers

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/resourceidentity"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/warehouse"
)

// Worker probes two candidate target names in order and records whichever
// is confirmed present. Target identifiers collide across regions within a
// project, so the region-suffixed candidate is the documented fallback.
type Worker struct {
	Resolver TargetResolver
	Store    Store
	Log      *zap.Logger
}

func (w *Worker) Handle(ctx context.Context, payload json.RawMessage) error {
	var task TaskPayload
	if err := json.Unmarshal(payload, &task); err != nil {
		return err
	}

	legacyFQN := resourceidentity.FormatLegacyFQN(task.ResourceKind, task.ProjectID, task.Location, task.LocalID)

	identityPreserving := resourceidentity.FormatTargetFQN(task.ResourceKind, task.ProjectID, task.Location, task.LocalID)
	summary, err := w.Resolver.GetResource(ctx, identityPreserving, task.ResourceKind)
	targetFQN := identityPreserving
	if !confirmed(summary, err) {
		regionSuffixed := resourceidentity.FormatTargetFQN(task.ResourceKind, task.ProjectID, task.Location, resourceidentity.RegionSuffixedID(task.LocalID, task.Location))
		summary, err = w.Resolver.GetResource(ctx, regionSuffixed, task.ResourceKind)
		targetFQN = regionSuffixed
		if !confirmed(summary, err) {
			w.Log.Info("no target match found", zap.String("legacyFqn", legacyFQN))
			return nil
		}
	}

	table := warehouse.TableEntryGroupsMapping
	if task.ResourceKind == resourceidentity.KindTagTemplate {
		table = warehouse.TableTagTemplatesMapping
	}
	row := warehouse.Row{legacyFQN, targetFQN}
	if err := w.Store.WriteRows(ctx, table, []warehouse.Row{row}, task.CreatedAt); err != nil {
		return err
	}
	w.Log.Info("mapped resource", zap.String("legacyFqn", legacyFQN), zap.String("targetFqn", targetFQN))
	return nil
}
