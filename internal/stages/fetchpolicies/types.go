// Copyright 2025 James Ross
//
// Package fetchpolicies implements stage S4 — FetchPolicies: for each
// resource in scope, fetch its IAM policy from whichever system currently
// manages it and record the bindings, one row per (resource, system).
package fetchpolicies

import (
	"context"
	"time"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/resourceidentity"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/warehouse"
)

// TaskPayload addresses one (resource, system) pair to fetch a policy for.
type TaskPayload struct {
	ResourceKind resourceidentity.ResourceKind `json:"resourceKind"`
	ResourceName string                        `json:"resourceName"`
	Location     string                        `json:"location"`
	System       resourceidentity.ManagingSystem `json:"system"`
	CreatedAt    time.Time                     `json:"createdAt"`
}

// Store is the subset of the warehouse adapter this stage needs.
type Store interface {
	WriteRows(ctx context.Context, table warehouse.TableName, rows []warehouse.Row, createdAt time.Time) error
}

// PolicyResolver fetches IAM bindings from one system's catalog.
type PolicyResolver interface {
	GetIamPolicy(ctx context.Context, resourceName string, kind resourceidentity.ResourceKind) ([]resourceidentity.Binding, error)
}

// ResourceRef is one resource the controller fans a fetch-policy task out
// for, paired with the system whose policy should be fetched.
type ResourceRef struct {
	Kind           resourceidentity.ResourceKind
	ProjectID      string
	LegacyName     string
	TargetName     string
	TargetLocation string
	Systems        []resourceidentity.ManagingSystem
}

// fetchRegion derives the subqueue region a task should route to.
// Target-system tag templates are globally scoped and forced onto a single
// region; target-system entry groups route to their own region; legacy-system
// resources always use the base queue.
func fetchRegion(kind resourceidentity.ResourceKind, system resourceidentity.ManagingSystem, location string) string {
	if system == resourceidentity.SystemLegacy {
		return ""
	}
	if kind == resourceidentity.KindTagTemplate {
		return "us-central1"
	}
	return location
}

func resourceNameFor(r ResourceRef, system resourceidentity.ManagingSystem) string {
	if system == resourceidentity.SystemLegacy {
		return r.LegacyName
	}
	return r.TargetName
}
