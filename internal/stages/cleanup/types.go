// Copyright 2025 James Ross
//
// Package cleanup implements stage S7 — CleanupLegacy: for every resource
// whose managing system has already flipped to TARGET, re-confirm the
// legacy record's transferred flag before forcibly deleting it. The confirm
// step is a gate, not an optimization — deleting on stale discovery data
// would destroy a resource still in flight.
package cleanup

import (
	"context"
	"time"
)

// TaskPayload addresses one legacy resource whose transfer should be
// re-confirmed before deletion.
type TaskPayload struct {
	ResourceName string    `json:"resourceName"`
	CreatedAt    time.Time `json:"createdAt"`
}

// LegacyCleaner re-confirms a legacy resource's transferred flag and, if
// set, deletes it.
type LegacyCleaner interface {
	ConfirmTransferred(ctx context.Context, resourceName string) (bool, error)
	DeleteResource(ctx context.Context, resourceName string, force bool) error
}

// ResourceRef is one target-managed resource in scope for cleanup.
type ResourceRef struct {
	ResourceName string
}

// Outcome is the HTTP-facing result of a cleanup attempt.
type Outcome struct {
	Status  int
	Message string
}
