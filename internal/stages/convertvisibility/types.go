// Copyright 2025 James Ross
//
// Package convertvisibility implements stage S5 — ConvertVisibility: for
// every tag template not yet publicly readable, flip its visibility flag on
// the target catalog. Idempotent — a template found already public is a
// no-op, not an error.
package convertvisibility

import (
	"context"
	"time"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/catalogapi"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/resourceidentity"
)

// TaskPayload addresses one tag template whose visibility should be checked
// and, if needed, converted.
type TaskPayload struct {
	ResourceName string    `json:"resourceName"`
	Location     string    `json:"location"`
	CreatedAt    time.Time `json:"createdAt"`
}

// VisibilityResolver reads and flips a tag template's public-readable flag
// on the target catalog.
type VisibilityResolver interface {
	GetResource(ctx context.Context, resourceName string, kind resourceidentity.ResourceKind) (catalogapi.ResourceSummary, error)
	SetPubliclyReadable(ctx context.Context, resourceName string, readable bool) error
}

// TemplateRef is one non-public tag template discovered in the latest
// snapshot.
type TemplateRef struct {
	ResourceName string
	Location     string
}

// Outcome is the HTTP-facing result of a visibility-conversion attempt.
// PermissionDenied surfaces as a recoverable client-side error rather than a
// silent terminal success, per the documented status table.
type Outcome struct {
	Status  int
	Message string
}
