// Copyright 2025 James Ross
//
// Package mapidentifiers implements stage S3 — MapIdentifiers: for each
// resource discovered in the legacy catalog, probe the target catalog for
// an identity-preserving name and, failing that, a region-suffixed name,
// recording whichever is confirmed present.
package mapidentifiers

import (
	"context"
	"time"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/catalogapi"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/resourceidentity"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/warehouse"
)

// TaskPayload addresses one resource to probe.
type TaskPayload struct {
	ResourceKind resourceidentity.ResourceKind `json:"resourceKind"`
	ProjectID    string                        `json:"projectId"`
	Location     string                        `json:"location"`
	LocalID      string                        `json:"localId"`
	CreatedAt    time.Time                     `json:"createdAt"`
}

// Store is the subset of the warehouse adapter this stage needs.
type Store interface {
	WriteRows(ctx context.Context, table warehouse.TableName, rows []warehouse.Row, createdAt time.Time) error
	LatestPartitionDate(ctx context.Context, table warehouse.TableName, asOf time.Time) (time.Time, error)
}

// TargetResolver probes the target catalog for a candidate resource name.
type TargetResolver interface {
	GetResource(ctx context.Context, resourceName string, kind resourceidentity.ResourceKind) (catalogapi.ResourceSummary, error)
}

// confirmed reports whether a probed resource counts as present: it must
// have been returned and carry a non-nil transfer status.
func confirmed(summary catalogapi.ResourceSummary, err error) bool {
	return err == nil && summary.TransferStatus != nil
}
