// Copyright 2025 James Ross
//
// Package enumerate implements stage S2 — EnumerateResources: paginate the
// legacy catalog's search endpoint for each project across the Cartesian
// product of resource type x transfer state (x visibility for tag
// templates), writing matching rows and self-chaining one successor task per
// continuation page.
package enumerate

import (
	"context"
	"time"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/catalogapi"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/resourceidentity"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/warehouse"
)

// TaskPayload is the JSON body for one enumeration page fetch.
type TaskPayload struct {
	ProjectID        string                        `json:"projectId"`
	ResourceType     resourceidentity.ResourceKind `json:"resourceType"`
	Transferred      *bool                         `json:"transferred,omitempty"`
	PubliclyReadable *bool                         `json:"publiclyReadable,omitempty"`
	NextPageToken    string                        `json:"nextPageToken,omitempty"`
	CreatedAt        time.Time                     `json:"createdAt"`
}

// Store is the subset of the warehouse adapter this stage needs.
type Store interface {
	WriteRows(ctx context.Context, table warehouse.TableName, rows []warehouse.Row, createdAt time.Time) error
	LatestPartitionDate(ctx context.Context, table warehouse.TableName, asOf time.Time) (time.Time, error)
}

// Searcher is the legacy catalog's paginated search surface.
type Searcher interface {
	Search(ctx context.Context, projectID string, filter catalogapi.SearchFilter) (catalogapi.SearchPage, error)
}

var boolPtr = func(b bool) *bool { return &b }

// InitialFilters returns the six initial task filters a project fans out to:
// the Cartesian product of {entry_group} union {tag_template x
// {public,private}} with {transferred, not-transferred}.
func InitialFilters() []TaskPayload {
	return []TaskPayload{
		{ResourceType: resourceidentity.KindEntryGroup, Transferred: boolPtr(false)},
		{ResourceType: resourceidentity.KindEntryGroup, Transferred: boolPtr(true)},
		{ResourceType: resourceidentity.KindTagTemplate, Transferred: boolPtr(false), PubliclyReadable: boolPtr(false)},
		{ResourceType: resourceidentity.KindTagTemplate, Transferred: boolPtr(false), PubliclyReadable: boolPtr(true)},
		{ResourceType: resourceidentity.KindTagTemplate, Transferred: boolPtr(true), PubliclyReadable: boolPtr(false)},
		{ResourceType: resourceidentity.KindTagTemplate, Transferred: boolPtr(true), PubliclyReadable: boolPtr(true)},
	}
}
