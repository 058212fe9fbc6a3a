// Copyright 2025 James Ross
package enumerate

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/catalogapi"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/resourceidentity"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/warehouse"
)

type fakeSearcher struct {
	page catalogapi.SearchPage
}

func (f fakeSearcher) Search(ctx context.Context, projectID string, filter catalogapi.SearchFilter) (catalogapi.SearchPage, error) {
	return f.page, nil
}

type fakeStore struct {
	writes []struct {
		table warehouse.TableName
		rows  []warehouse.Row
	}
}

func (f *fakeStore) WriteRows(ctx context.Context, table warehouse.TableName, rows []warehouse.Row, createdAt time.Time) error {
	f.writes = append(f.writes, struct {
		table warehouse.TableName
		rows  []warehouse.Row
	}{table, rows})
	return nil
}

func (f *fakeStore) LatestPartitionDate(ctx context.Context, table warehouse.TableName, asOf time.Time) (time.Time, error) {
	return asOf, nil
}

type fakeEnqueuer struct{ calls int }

func (f *fakeEnqueuer) Enqueue(ctx context.Context, region string, payload json.RawMessage, target string) error {
	f.calls++
	return nil
}

type fakeTargeter struct{}

func (fakeTargeter) Target(ctx context.Context, projectID, region string) (string, error) {
	return "https://enumerate-worker.example", nil
}

func TestWorkerEnqueuesSuccessorWhenTokenPresent(t *testing.T) {
	store := &fakeStore{}
	enq := &fakeEnqueuer{}
	w := &Worker{
		Store:  store,
		Catalog: fakeSearcher{page: catalogapi.SearchPage{
			Resources: []catalogapi.ResourceSummary{
				{ProjectID: "prj1", Location: "us-west1", LocalID: "eg1", ResourceName: "projects/prj1/locations/us-west1/entryGroups/eg1"},
				{ProjectID: "prj1", Location: "us-west1", LocalID: "eg2", ResourceName: "projects/prj1/locations/us-west1/entryGroups/eg2"},
			},
			NextPageToken: "TOKEN",
		}},
		Queue:  enq,
		Target: fakeTargeter{},
		Log:    zap.NewNop(),
	}

	payload, err := json.Marshal(TaskPayload{ProjectID: "prj1", ResourceType: resourceidentity.KindEntryGroup})
	require.NoError(t, err)

	require.NoError(t, w.Handle(context.Background(), payload))

	require.Len(t, store.writes, 1)
	assert.Equal(t, warehouse.TableEntryGroups, store.writes[0].table)
	assert.Len(t, store.writes[0].rows, 2)
	assert.Equal(t, 1, enq.calls)
}

func TestWorkerTerminatesPaginationWhenNoToken(t *testing.T) {
	store := &fakeStore{}
	enq := &fakeEnqueuer{}
	w := &Worker{
		Store:   store,
		Catalog: fakeSearcher{page: catalogapi.SearchPage{}},
		Queue:   enq,
		Target:  fakeTargeter{},
		Log:     zap.NewNop(),
	}

	payload, err := json.Marshal(TaskPayload{ProjectID: "prj1", ResourceType: resourceidentity.KindEntryGroup})
	require.NoError(t, err)

	require.NoError(t, w.Handle(context.Background(), payload))
	assert.Equal(t, 0, enq.calls)
}

func TestInitialFiltersCoverCartesianProduct(t *testing.T) {
	filters := InitialFilters()
	assert.Len(t, filters, 6)
}
