// Copyright 2025 James Ross
package discover

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/resourceidentity"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/warehouse"
)

// Worker processes one discovered project task: resolve its ancestry and
// write a row to the projects table.
type Worker struct {
	Store    Store
	Ancestry AncestryResolver
	Log      *zap.Logger
}

// Handle decodes payload, resolves ancestry, and writes the project row.
// Returned errors are classified via migerr so the HTTP handler can map them
// onto the right status code.
func (w *Worker) Handle(ctx context.Context, payload json.RawMessage) error {
	var task TaskPayload
	if err := json.Unmarshal(payload, &task); err != nil {
		return err
	}

	ancestry, err := w.Ancestry.ProjectAncestry(ctx, task.ProjectID)
	if err != nil {
		return err
	}

	row := warehouse.Row{task.ProjectID, int64(0), boolToUint8(task.DataCatalogAPIEnabled), boolToUint8(task.TargetAPIEnabled), encodeAncestry(ancestry)}
	if err := w.Store.WriteRows(ctx, warehouse.TableProjects, []warehouse.Row{row}, task.CreatedAt); err != nil {
		return err
	}
	w.Log.Info("wrote project", zap.String("projectId", task.ProjectID))
	return nil
}

func encodeAncestry(ancestry []resourceidentity.AncestorRef) string {
	b, _ := json.Marshal(ancestry)
	return string(b)
}

func boolToUint8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
