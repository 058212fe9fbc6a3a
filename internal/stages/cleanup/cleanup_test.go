// Copyright 2025 James Ross
package cleanup

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCleaner struct {
	transferred bool
	confirmErr  error
	deleted     bool
	deleteErr   error
}

func (f *fakeCleaner) ConfirmTransferred(ctx context.Context, resourceName string) (bool, error) {
	return f.transferred, f.confirmErr
}

func (f *fakeCleaner) DeleteResource(ctx context.Context, resourceName string, force bool) error {
	f.deleted = true
	return f.deleteErr
}

func payload(t *testing.T, name string) json.RawMessage {
	b, err := json.Marshal(TaskPayload{ResourceName: name})
	require.NoError(t, err)
	return b
}

func TestWorkerSkipsDeleteWhenNotTransferred(t *testing.T) {
	// Scenario F: legacy record has transferred=false.
	c := &fakeCleaner{transferred: false}
	w := &Worker{Cleaner: c, Log: zap.NewNop()}

	outcome, err := w.Handle(context.Background(), payload(t, "projects/prj1/locations/us-west1/entryGroups/eg1"))
	require.NoError(t, err)
	assert.Equal(t, Outcome{Status: 200, Message: "not transferred"}, outcome)
	assert.False(t, c.deleted)
}

func TestWorkerDeletesWhenConfirmedTransferred(t *testing.T) {
	c := &fakeCleaner{transferred: true}
	w := &Worker{Cleaner: c, Log: zap.NewNop()}

	outcome, err := w.Handle(context.Background(), payload(t, "projects/prj1/locations/us-west1/entryGroups/eg1"))
	require.NoError(t, err)
	assert.Equal(t, Outcome{Status: 200, Message: "deleted"}, outcome)
	assert.True(t, c.deleted)
}
