// Copyright 2025 James Ross
package discover

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

type fakeSearcher struct{ projects []resourceidentity.Project }

func (f fakeSearcher) SearchProjects(ctx context.Context, scope string) ([]resourceidentity.Project, error) {
	return f.projects, nil
}

type fakeEnqueuer struct{ enqueued []json.RawMessage }

func (f *fakeEnqueuer) Enqueue(ctx context.Context, region string, payload json.RawMessage, target string) error {
	f.enqueued = append(f.enqueued, payload)
	return nil
}

type fakeTargeter struct{}

func (fakeTargeter) Target(ctx context.Context, projectID, region string) (string, error) {
	return "https://discover-worker.example/" + projectID, nil
}

func TestControllerMergesDuplicateProjects(t *testing.T) {
	searcher := fakeSearcher{projects: []resourceidentity.Project{
		{ProjectID: "prj1", DataCatalogAPIEnabled: true},
		{ProjectID: "prj1", TargetAPIEnabled: true},
		{ProjectID: "prj2", TargetAPIEnabled: true},
	}}
	enq := &fakeEnqueuer{}
	c := &Controller{Searcher: searcher, Queue: enq, Target: fakeTargeter{}, Log: zap.NewNop(), Workers: 2}

	require.NoError(t, c.Run(context.Background(), "organizations/1"))

	require.Len(t, enq.enqueued, 2)
	var seenMerged, seenOther bool
	for _, raw := range enq.enqueued {
		var p TaskPayload
		require.NoError(t, json.Unmarshal(raw, &p))
		if p.ProjectID == "prj1" {
			assert.True(t, p.DataCatalogAPIEnabled)
			assert.True(t, p.TargetAPIEnabled)
			seenMerged = true
		}
		if p.ProjectID == "prj2" {
			seenOther = true
		}
	}
	assert.True(t, seenMerged)
	assert.True(t, seenOther)
}

type fakeAncestry struct {
	refs []resourceidentity.AncestorRef
}

func (f fakeAncestry) ProjectAncestry(ctx context.Context, projectID string) ([]resourceidentity.AncestorRef, error) {
	return f.refs, nil
}

type fakeStore struct {
	table     warehouse.TableName
	rows      []warehouse.Row
	createdAt time.Time
}

func (f *fakeStore) WriteRows(ctx context.Context, table warehouse.TableName, rows []warehouse.Row, createdAt time.Time) error {
	f.table = table
	f.rows = rows
	f.createdAt = createdAt
	return nil
}

func TestWorkerWritesProjectRow(t *testing.T) {
	store := &fakeStore{}
	w := &Worker{
		Store:    store,
		Ancestry: fakeAncestry{refs: []resourceidentity.AncestorRef{{Kind: resourceidentity.AncestryOrganization, ID: "999"}}},
		Log:      zap.NewNop(),
	}

	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	payload, err := json.Marshal(TaskPayload{ProjectID: "prj1", DataCatalogAPIEnabled: true, CreatedAt: now})
	require.NoError(t, err)

	require.NoError(t, w.Handle(context.Background(), payload))

	assert.Equal(t, warehouse.TableProjects, store.table)
	require.Len(t, store.rows, 1)
	assert.Equal(t, "prj1", store.rows[0][0])
	assert.Equal(t, uint8(1), store.rows[0][2])
	assert.Equal(t, now, store.createdAt)
}
