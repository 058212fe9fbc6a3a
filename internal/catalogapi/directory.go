// Copyright 2025 James Ross
package catalogapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/migerr"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/resourceidentity"
)

// RESTDirectoryClient is a DirectoryClient backed by the organization
// directory API's REST surface, grounded on ResourceManagerApiAdapter's
// cached project/organization number lookups and ancestry walk.
type RESTDirectoryClient struct {
	cfg    RESTConfig
	client *http.Client
}

func NewRESTDirectoryClient(cfg RESTConfig) *RESTDirectoryClient {
	return &RESTDirectoryClient{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

func (c *RESTDirectoryClient) rest() *RESTClient { return &RESTClient{cfg: c.cfg, client: c.client} }

func (c *RESTDirectoryClient) ProjectNumber(ctx context.Context, projectID string) (int64, error) {
	var result struct {
		ProjectNumber int64 `json:"projectNumber"`
	}
	if _, err := c.rest().do(ctx, http.MethodGet, "/v1/projects/"+projectID, nil, &result); err != nil {
		return 0, err
	}
	return result.ProjectNumber, nil
}

func (c *RESTDirectoryClient) OrganizationNumber(ctx context.Context, anchorProjectID string) (int64, error) {
	ancestry, err := c.ProjectAncestry(ctx, anchorProjectID)
	if err != nil {
		return 0, err
	}
	for _, a := range ancestry {
		if a.Kind == resourceidentity.AncestryOrganization {
			n, err := strconv.ParseInt(a.ID, 10, 64)
			if err != nil {
				return 0, migerr.Wrap(migerr.KindFormatFault, "parse organization id", err)
			}
			return n, nil
		}
	}
	return 0, migerr.New(migerr.KindNotFound, "no organization ancestor for "+anchorProjectID)
}

func (c *RESTDirectoryClient) ProjectAncestry(ctx context.Context, projectID string) ([]resourceidentity.AncestorRef, error) {
	var result struct {
		Ancestry []struct {
			Type string `json:"type"`
			ID   string `json:"id"`
		} `json:"ancestry"`
	}
	if _, err := c.rest().do(ctx, http.MethodGet, "/v1/projects/"+projectID+":getAncestry", nil, &result); err != nil {
		return nil, err
	}
	refs := make([]resourceidentity.AncestorRef, 0, len(result.Ancestry))
	for _, a := range result.Ancestry {
		var kind resourceidentity.AncestryKind
		switch a.Type {
		case "folder":
			kind = resourceidentity.AncestryFolder
		case "organization":
			kind = resourceidentity.AncestryOrganization
		default:
			return nil, migerr.New(migerr.KindFormatFault, "unknown ancestor type "+a.Type)
		}
		refs = append(refs, resourceidentity.AncestorRef{Kind: kind, ID: a.ID})
	}
	return refs, nil
}

func (c *RESTDirectoryClient) SearchProjects(ctx context.Context, scope string) ([]resourceidentity.Project, error) {
	var result struct {
		Projects []resourceidentity.Project `json:"projects"`
	}
	if _, err := c.rest().do(ctx, http.MethodGet, "/v1/projects:search?scope="+scope, nil, &result); err != nil {
		return nil, err
	}
	return result.Projects, nil
}
