// Copyright 2025 James Ross
//
// Package transfer implements stage S6 — TransferResources: for every
// resource still managed by the legacy system within scope, call the legacy
// system's transfer mutation and record the outcome.
package transfer

import (
	"context"
	"time"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/catalogapi"
)

// TaskPayload addresses one legacy resource to transfer.
type TaskPayload struct {
	ResourceName string    `json:"resourceName"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Transferrer issues the legacy-side transfer mutation.
type Transferrer interface {
	SetTransferred(ctx context.Context, resourceName string) (catalogapi.TransferOutcome, error)
}

// ResourceRef is one legacy-managed resource in scope for transfer.
type ResourceRef struct {
	ResourceName string
}

// Outcome is the HTTP-facing result of a transfer attempt, matching the
// documented status/message table.
type Outcome struct {
	Status  int
	Message string
}

// ClassifyOutcome maps a SetTransferred result onto its HTTP-facing outcome.
func ClassifyOutcome(outcome catalogapi.TransferOutcome, err error) (Outcome, error) {
	if err != nil {
		return Outcome{Status: 500, Message: "retry"}, err
	}
	switch outcome {
	case catalogapi.TransferAlreadyDone:
		return Outcome{Status: 200, Message: "already transferred"}, nil
	case catalogapi.TransferResourceGone:
		return Outcome{Status: 200, Message: "not found"}, nil
	default:
		return Outcome{Status: 200, Message: "processed"}, nil
	}
}
