// Copyright 2025 James Ross
package convertvisibility

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/catalogapi"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/migerr"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/resourceidentity"
)

type fakeResolver struct {
	summary   catalogapi.ResourceSummary
	getErr    error
	setCalled bool
	setErr    error
}

func (f *fakeResolver) GetResource(ctx context.Context, resourceName string, kind resourceidentity.ResourceKind) (catalogapi.ResourceSummary, error) {
	return f.summary, f.getErr
}

func (f *fakeResolver) SetPubliclyReadable(ctx context.Context, resourceName string, readable bool) error {
	f.setCalled = true
	return f.setErr
}

func payload(t *testing.T, name string) json.RawMessage {
	b, err := json.Marshal(TaskPayload{ResourceName: name, Location: "us-west1"})
	require.NoError(t, err)
	return b
}

func TestWorkerFlipsVisibilityWhenNotPublic(t *testing.T) {
	r := &fakeResolver{summary: catalogapi.ResourceSummary{IsPubliclyReadable: false}}
	w := &Worker{Resolver: r, Log: zap.NewNop()}

	outcome, err := w.Handle(context.Background(), payload(t, "projects/prj1/locations/global/aspectTypes/tt1"))
	require.NoError(t, err)
	assert.Equal(t, 200, outcome.Status)
	assert.True(t, r.setCalled)
}

func TestWorkerNoOpsWhenAlreadyPublic(t *testing.T) {
	r := &fakeResolver{summary: catalogapi.ResourceSummary{IsPubliclyReadable: true}}
	w := &Worker{Resolver: r, Log: zap.NewNop()}

	outcome, err := w.Handle(context.Background(), payload(t, "projects/prj1/locations/global/aspectTypes/tt1"))
	require.NoError(t, err)
	assert.Equal(t, 200, outcome.Status)
	assert.False(t, r.setCalled)
}

func TestWorkerSurfacesPermissionDeniedAsRecoverableClientError(t *testing.T) {
	r := &fakeResolver{summary: catalogapi.ResourceSummary{}, setErr: migerr.New(migerr.KindUnauthorized, "denied")}
	w := &Worker{Resolver: r, Log: zap.NewNop()}

	outcome, err := w.Handle(context.Background(), payload(t, "projects/prj1/locations/global/aspectTypes/tt1"))
	require.Error(t, err)
	assert.Equal(t, 400, outcome.Status)
	assert.True(t, r.setCalled)
}
