// Copyright 2025 James Ross
//
// Package catalogapi defines the external collaborator surface this system
// depends on but does not implement: the legacy and target catalog APIs, the
// organization directory API, and the quota-discovery API. Each is modeled
// as a narrow interface so stages depend on behavior, not a concrete SDK.
package catalogapi

import (
	"context"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/resourceidentity"
)

// SearchFilter narrows a catalog search to a resource type and its
// transfer/visibility state.
type SearchFilter struct {
	ResourceType     resourceidentity.ResourceKind
	Transferred      *bool // nil = don't filter
	PubliclyReadable *bool // nil = don't filter; tag templates only
	PageToken        string
	PageSize         int
}

// SearchPage is one page of a catalog search.
type SearchPage struct {
	Resources     []ResourceSummary
	NextPageToken string
}

// ResourceSummary is the minimal shape a search result carries.
type ResourceSummary struct {
	ResourceName       string
	ProjectID          string
	Location           string
	LocalID            string
	TransferStatus     *string // non-nil means the resource carries a transfer status, used by mapping's existence probe
	IsPubliclyReadable bool    // tag templates only, read live by the visibility-conversion worker
}

// CatalogClient is implemented once per system (legacy, target) and covers
// the operations every stage needs against that system.
type CatalogClient interface {
	Search(ctx context.Context, projectID string, filter SearchFilter) (SearchPage, error)
	GetResource(ctx context.Context, resourceName string, kind resourceidentity.ResourceKind) (ResourceSummary, error)
	GetIamPolicy(ctx context.Context, resourceName string, kind resourceidentity.ResourceKind) ([]resourceidentity.Binding, error)
	SetPubliclyReadable(ctx context.Context, resourceName string, readable bool) error
	SetTransferred(ctx context.Context, resourceName string) (outcome TransferOutcome, err error)
	ConfirmTransferred(ctx context.Context, resourceName string) (bool, error)
	DeleteResource(ctx context.Context, resourceName string, force bool) error
}

// TransferOutcome classifies the result of a SetTransferred call so the
// worker can map it onto the spec's documented HTTP status/message table.
type TransferOutcome int

const (
	TransferInitiated TransferOutcome = iota
	TransferAlreadyDone
	TransferResourceGone
)

// DirectoryClient resolves organization/project ancestry and project
// metadata, standing in for the organization directory API.
type DirectoryClient interface {
	ProjectNumber(ctx context.Context, projectID string) (int64, error)
	OrganizationNumber(ctx context.Context, anchorProjectID string) (int64, error)
	ProjectAncestry(ctx context.Context, projectID string) ([]resourceidentity.AncestorRef, error)
	SearchProjects(ctx context.Context, scope string) ([]resourceidentity.Project, error)
}

// QuotaClient resolves per-region API quotas, standing in for the
// quota-discovery API.
type QuotaClient interface {
	DefaultQuotaPerMinute(ctx context.Context, service, quotaID, region string) (int64, error)
	MinCatalogManagementQuotaPerMinute(ctx context.Context, service, region string) (int64, error)
}
