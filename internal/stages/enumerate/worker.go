// Copyright 2025 James Ross
package enumerate

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/catalogapi"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/resourceidentity"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/stages/stagecommon"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/warehouse"
)

// Worker fetches exactly one page per invocation and, if the upstream
// response carries a continuation token, enqueues one successor task
// carrying it — a self-chained paginator.
type Worker struct {
	Store    Store
	Catalog  Searcher
	Queue    stagecommon.Enqueuer
	Target   stagecommon.Targeter
	Log      *zap.Logger
}

func (w *Worker) Handle(ctx context.Context, payload json.RawMessage) error {
	var task TaskPayload
	if err := json.Unmarshal(payload, &task); err != nil {
		return err
	}

	page, err := w.Catalog.Search(ctx, task.ProjectID, catalogapi.SearchFilter{
		ResourceType:     task.ResourceType,
		Transferred:      task.Transferred,
		PubliclyReadable: task.PubliclyReadable,
		PageToken:        task.NextPageToken,
	})
	if err != nil {
		return err
	}

	managingSystem := resourceidentity.SystemLegacy
	if task.Transferred != nil && *task.Transferred {
		managingSystem = resourceidentity.SystemTarget
	}

	rows := make([]warehouse.Row, 0, len(page.Resources))
	table := warehouse.TableEntryGroups
	if task.ResourceType == resourceidentity.KindTagTemplate {
		table = warehouse.TableTagTemplates
	}
	for _, r := range page.Resources {
		if task.ResourceType == resourceidentity.KindTagTemplate {
			rows = append(rows, warehouse.Row{r.ProjectID, r.Location, r.LocalID, r.ResourceName, "", string(managingSystem), boolToUint8(task.PubliclyReadable != nil && *task.PubliclyReadable)})
		} else {
			rows = append(rows, warehouse.Row{r.ProjectID, r.Location, r.LocalID, r.ResourceName, "", string(managingSystem)})
		}
	}
	if len(rows) > 0 {
		if err := w.Store.WriteRows(ctx, table, rows, task.CreatedAt); err != nil {
			return err
		}
	}
	w.Log.Info("enumerated page", zap.String("projectId", task.ProjectID), zap.String("resourceType", string(task.ResourceType)), zap.Int("count", len(page.Resources)))

	if page.NextPageToken == "" {
		return nil
	}

	next := task
	next.NextPageToken = page.NextPageToken
	nextPayload, err := stagecommon.MarshalPayload(next)
	if err != nil {
		return err
	}
	target, err := w.Target.Target(ctx, task.ProjectID, "")
	if err != nil {
		return err
	}
	return w.Queue.Enqueue(ctx, "", nextPayload, target)
}

func boolToUint8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
