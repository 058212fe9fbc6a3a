// Copyright 2025 James Ross
//
// Package discover implements stage S1 — DiscoverProjects: find every
// project in scope where either catalog API is enabled, then resolve each
// project's ancestry and write it to the warehouse.
package discover

import (
	"context"
	"time"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/resourceidentity"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/warehouse"
)

// TaskPayload is the JSON body enqueued for each discovered project.
type TaskPayload struct {
	ProjectID             string    `json:"projectId"`
	DataCatalogAPIEnabled bool      `json:"dataCatalogApiEnabled"`
	TargetAPIEnabled      bool      `json:"targetApiEnabled"`
	CreatedAt             time.Time `json:"createdAt"`
}

// Store is the subset of the warehouse adapter this stage needs; satisfied
// directly by *warehouse.Adapter.
type Store interface {
	WriteRows(ctx context.Context, table warehouse.TableName, rows []warehouse.Row, createdAt time.Time) error
}

// AncestryResolver resolves a project's ancestor chain, standing in for the
// organization directory API.
type AncestryResolver interface {
	ProjectAncestry(ctx context.Context, projectID string) ([]resourceidentity.AncestorRef, error)
}

// ProjectSearcher discovers candidate projects for a scope, standing in for
// the organization directory API's search surface.
type ProjectSearcher interface {
	SearchProjects(ctx context.Context, scope string) ([]resourceidentity.Project, error)
}
