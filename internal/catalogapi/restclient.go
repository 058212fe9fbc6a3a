// Copyright 2025 James Ross
package catalogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/breaker"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/migerr"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/resourceidentity"
)

// RESTConfig configures a generic authenticated REST client against one of
// the catalog systems. No vendor SDK is assumed; the token is supplied by
// whatever credential source the deployment wires in (service account,
// workload identity, etc.) ahead of time.
type RESTConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	BearerToken string        `mapstructure:"bearer_token"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// RESTClient is a CatalogClient backed by plain JSON-over-HTTP calls.
type RESTClient struct {
	cfg     RESTConfig
	client  *http.Client
	breaker *breaker.CircuitBreaker
}

func NewRESTClient(cfg RESTConfig) *RESTClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &RESTClient{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

// WithCircuitBreaker trips the client's calls through cb: a tripped-open
// breaker fails fast with KindUpstream instead of making the HTTP call.
func (c *RESTClient) WithCircuitBreaker(cb *breaker.CircuitBreaker) *RESTClient {
	c.breaker = cb
	return c
}

func (c *RESTClient) do(ctx context.Context, method, path string, body any, out any) (*http.Response, error) {
	if c.breaker != nil && !c.breaker.Allow() {
		return nil, migerr.New(migerr.KindUpstream, "circuit open: "+path)
	}
	resp, err := c.doRequest(ctx, method, path, body, out)
	if c.breaker != nil {
		c.breaker.Record(err == nil || migerr.KindOf(err) == migerr.KindNotFound)
	}
	return resp, err
}

func (c *RESTClient) doRequest(ctx context.Context, method, path string, body any, out any) (*http.Response, error) {
	var reader bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, migerr.Wrap(migerr.KindUpstream, "marshal request body", err)
		}
		reader = *bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, &reader)
	if err != nil {
		return nil, migerr.Wrap(migerr.KindUpstream, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.BearerToken)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, migerr.Wrap(migerr.KindUpstream, "call "+path, err)
	}
	switch resp.StatusCode {
	case http.StatusForbidden:
		resp.Body.Close()
		return resp, migerr.New(migerr.KindUnauthorized, "permission denied: "+path)
	case http.StatusNotFound:
		resp.Body.Close()
		return resp, migerr.New(migerr.KindNotFound, "not found: "+path)
	case http.StatusBadRequest:
		resp.Body.Close()
		return resp, migerr.New(migerr.KindTypeMismatch, "invalid argument: "+path)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return resp, migerr.New(migerr.KindUpstream, fmt.Sprintf("%s returned %d", path, resp.StatusCode))
	}
	if out != nil {
		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, migerr.Wrap(migerr.KindUpstream, "decode response", err)
		}
	}
	return resp, nil
}

func (c *RESTClient) Search(ctx context.Context, projectID string, filter SearchFilter) (SearchPage, error) {
	var page SearchPage
	_, err := c.do(ctx, http.MethodPost, "/v1/search", map[string]any{
		"projectId":        projectID,
		"resourceType":     filter.ResourceType,
		"transferred":      filter.Transferred,
		"publiclyReadable": filter.PubliclyReadable,
		"pageToken":        filter.PageToken,
		"pageSize":         filter.PageSize,
	}, &page)
	if err != nil && migerr.KindOf(err) != migerr.KindNotFound {
		return SearchPage{}, err
	}
	return page, nil
}

func (c *RESTClient) GetResource(ctx context.Context, resourceName string, kind resourceidentity.ResourceKind) (ResourceSummary, error) {
	var summary ResourceSummary
	_, err := c.do(ctx, http.MethodGet, "/v1/"+resourceName, nil, &summary)
	if err != nil {
		return ResourceSummary{}, err
	}
	return summary, nil
}

func (c *RESTClient) GetIamPolicy(ctx context.Context, resourceName string, kind resourceidentity.ResourceKind) ([]resourceidentity.Binding, error) {
	var result struct {
		Bindings []resourceidentity.Binding `json:"bindings"`
	}
	_, err := c.do(ctx, http.MethodGet, "/v1/"+resourceName+":getIamPolicy", nil, &result)
	if err != nil {
		if migerr.KindOf(err) == migerr.KindNotFound {
			return nil, nil
		}
		return nil, err
	}
	return result.Bindings, nil
}

func (c *RESTClient) SetPubliclyReadable(ctx context.Context, resourceName string, readable bool) error {
	_, err := c.do(ctx, http.MethodPatch, "/v1/"+resourceName+"?updateMask=isPubliclyReadable", map[string]any{
		"isPubliclyReadable": readable,
	}, nil)
	if err != nil && migerr.KindOf(err) == migerr.KindUnauthorized {
		return err
	}
	return err
}

func (c *RESTClient) SetTransferred(ctx context.Context, resourceName string) (TransferOutcome, error) {
	_, err := c.do(ctx, http.MethodPatch, "/v1/"+resourceName+":setTransferred", nil, nil)
	switch migerr.KindOf(err) {
	case migerr.KindNotFound, migerr.KindUnauthorized:
		return TransferResourceGone, nil
	case migerr.KindTypeMismatch:
		return TransferAlreadyDone, nil
	}
	if err != nil {
		return TransferInitiated, err
	}
	return TransferInitiated, nil
}

func (c *RESTClient) ConfirmTransferred(ctx context.Context, resourceName string) (bool, error) {
	var result struct {
		Transferred bool `json:"transferred"`
	}
	_, err := c.do(ctx, http.MethodGet, "/v1/"+resourceName, nil, &result)
	if err != nil {
		if migerr.KindOf(err) == migerr.KindNotFound {
			return false, nil
		}
		return false, err
	}
	return result.Transferred, nil
}

func (c *RESTClient) DeleteResource(ctx context.Context, resourceName string, force bool) error {
	path := "/v1/" + resourceName
	if force {
		path += "?force=true"
	}
	_, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if migerr.KindOf(err) == migerr.KindNotFound {
		return nil
	}
	return err
}
