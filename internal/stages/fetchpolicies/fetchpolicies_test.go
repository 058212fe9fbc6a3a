// Copyright 2025 James Ross
package fetchpolicies

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/resourceidentity"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/warehouse"
)

type fakePreparer struct {
	regions []string
}

func (f *fakePreparer) PrepareRegionQueues(ctx context.Context, regions []string, quota, percent float64) error {
	f.regions = append([]string(nil), regions...)
	return nil
}

type fakeEnqueuer struct {
	regions []string
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, region string, payload json.RawMessage, target string) error {
	f.regions = append(f.regions, region)
	return nil
}

type fakeTargeter struct{}

func (fakeTargeter) Target(ctx context.Context, projectID, region string) (string, error) {
	return "https://fetch-worker.example", nil
}

func TestControllerRoutesByKindAndSystem(t *testing.T) {
	// Scenario D: tag template tt1 with both systems in scope.
	prep := &fakePreparer{}
	enq := &fakeEnqueuer{}
	c := &Controller{Preparer: prep, Queue: enq, Target: fakeTargeter{}, Log: zap.NewNop(), Workers: 2}

	resources := []ResourceRef{{
		Kind:           resourceidentity.KindTagTemplate,
		ProjectID:      "prj1",
		LegacyName:     "projects/prj1/locations/us-west1/tagTemplates/tt1",
		TargetName:     "projects/prj1/locations/global/aspectTypes/tt1",
		TargetLocation: "us-west1",
		Systems:        []resourceidentity.ManagingSystem{resourceidentity.SystemLegacy, resourceidentity.SystemTarget},
	}}

	require.NoError(t, c.Run(context.Background(), resources, 600, 50))

	assert.ElementsMatch(t, []string{"", "us-central1"}, enq.regions)
	assert.ElementsMatch(t, []string{"us-central1"}, prep.regions)
}

func TestControllerRoutesEntryGroupToOwnRegion(t *testing.T) {
	prep := &fakePreparer{}
	enq := &fakeEnqueuer{}
	c := &Controller{Preparer: prep, Queue: enq, Target: fakeTargeter{}, Log: zap.NewNop(), Workers: 2}

	resources := []ResourceRef{{
		Kind:           resourceidentity.KindEntryGroup,
		ProjectID:      "prj1",
		LegacyName:     "projects/prj1/locations/us-west1/entryGroups/eg1",
		TargetName:     "projects/prj1/locations/us-west1/entryGroups/eg1",
		TargetLocation: "us-west1",
		Systems:        []resourceidentity.ManagingSystem{resourceidentity.SystemTarget},
	}}

	require.NoError(t, c.Run(context.Background(), resources, 600, 50))
	assert.Equal(t, []string{"us-west1"}, enq.regions)
	assert.Equal(t, []string{"us-west1"}, prep.regions)
}

type fakeResolver struct {
	bindings []resourceidentity.Binding
}

func (f fakeResolver) GetIamPolicy(ctx context.Context, resourceName string, kind resourceidentity.ResourceKind) ([]resourceidentity.Binding, error) {
	return f.bindings, nil
}

type fakeStore struct {
	rows []warehouse.Row
}

func (f *fakeStore) WriteRows(ctx context.Context, table warehouse.TableName, rows []warehouse.Row, createdAt time.Time) error {
	f.rows = append(f.rows, rows...)
	return nil
}

func TestWorkerWritesEmptyBindingsWhenPolicyAbsent(t *testing.T) {
	store := &fakeStore{}
	w := &Worker{Legacy: fakeResolver{bindings: nil}, Target: fakeResolver{}, Store: store, Log: zap.NewNop()}

	payload, err := json.Marshal(TaskPayload{
		ResourceKind: resourceidentity.KindTagTemplate,
		ResourceName: "projects/prj1/locations/us-west1/tagTemplates/tt1",
		System:       resourceidentity.SystemLegacy,
	})
	require.NoError(t, err)
	require.NoError(t, w.Handle(context.Background(), payload))

	require.Len(t, store.rows, 1)
	assert.Equal(t, "[]", store.rows[0][2])
}

func TestWorkerUsesTargetResolverForTargetSystem(t *testing.T) {
	store := &fakeStore{}
	w := &Worker{
		Legacy: fakeResolver{bindings: []resourceidentity.Binding{{Role: "legacyRole"}}},
		Target: fakeResolver{bindings: []resourceidentity.Binding{{Role: "roles/viewer", Members: []string{"user:a@example.com"}}}},
		Store:  store,
		Log:    zap.NewNop(),
	}

	payload, err := json.Marshal(TaskPayload{
		ResourceKind: resourceidentity.KindTagTemplate,
		ResourceName: "projects/prj1/locations/global/aspectTypes/tt1",
		System:       resourceidentity.SystemTarget,
	})
	require.NoError(t, err)
	require.NoError(t, w.Handle(context.Background(), payload))

	require.Len(t, store.rows, 1)
	assert.Contains(t, store.rows[0][2], "roles/viewer")
	assert.Equal(t, string(resourceidentity.SystemTarget), store.rows[0][1])
}
