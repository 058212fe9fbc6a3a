// Copyright 2025 James Ross
package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/catalogapi"
)

type fakeTransferrer struct {
	outcome catalogapi.TransferOutcome
	err     error
}

func (f fakeTransferrer) SetTransferred(ctx context.Context, resourceName string) (catalogapi.TransferOutcome, error) {
	return f.outcome, f.err
}

func payload(t *testing.T, name string) json.RawMessage {
	b, err := json.Marshal(TaskPayload{ResourceName: name})
	require.NoError(t, err)
	return b
}

func TestWorkerReturnsProcessedOnSuccess(t *testing.T) {
	// Scenario E variant: fresh transfer.
	w := &Worker{Transferrer: fakeTransferrer{outcome: catalogapi.TransferInitiated}, Log: zap.NewNop()}
	outcome, err := w.Handle(context.Background(), payload(t, "projects/prj1/locations/us-west1/entryGroups/eg1"))
	require.NoError(t, err)
	assert.Equal(t, Outcome{Status: 200, Message: "processed"}, outcome)
}

func TestWorkerReturnsAlreadyTransferredWithoutRetry(t *testing.T) {
	// Scenario E: InvalidArgument("already transferred") -> HTTP 200, no retry.
	w := &Worker{Transferrer: fakeTransferrer{outcome: catalogapi.TransferAlreadyDone}, Log: zap.NewNop()}
	outcome, err := w.Handle(context.Background(), payload(t, "projects/prj1/locations/us-west1/entryGroups/eg1"))
	require.NoError(t, err)
	assert.Equal(t, Outcome{Status: 200, Message: "already transferred"}, outcome)
}

func TestWorkerReturnsNotFoundForGoneResource(t *testing.T) {
	w := &Worker{Transferrer: fakeTransferrer{outcome: catalogapi.TransferResourceGone}, Log: zap.NewNop()}
	outcome, err := w.Handle(context.Background(), payload(t, "projects/prj1/locations/us-west1/entryGroups/eg1"))
	require.NoError(t, err)
	assert.Equal(t, Outcome{Status: 200, Message: "not found"}, outcome)
}

func TestWorkerSurfaces500ForUpstreamFailure(t *testing.T) {
	w := &Worker{Transferrer: fakeTransferrer{err: errors.New("boom")}, Log: zap.NewNop()}
	outcome, err := w.Handle(context.Background(), payload(t, "projects/prj1/locations/us-west1/entryGroups/eg1"))
	require.Error(t, err)
	assert.Equal(t, 500, outcome.Status)
}
