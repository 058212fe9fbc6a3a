// Copyright 2025 James Ross
package catalogapi

import (
	"context"
	"math"
	"net/http"
)

// Quota IDs queried for the target catalog's read budget, grounded on
// Quotas.CATALOG_MANAGEMENT_READS / CATALOG_MANAGEMENT_PER_USER_READS.
const (
	QuotaCatalogManagementReads        = "CatalogManagementReadsPerMinutePerProjectPerRegion"
	QuotaCatalogManagementPerUserReads = "CatalogManagementReadsPerMinutePerProjectPerUserPerRegion"
)

// RESTQuotaClient is a QuotaClient backed by the quota-discovery API,
// grounded on QuotaInfoAdapter.get_default_quota_value: it takes the minimum
// across reported quota values and returns it per minute; RPSFromQuota
// converts that to per-second by ceil(min/60).
type RESTQuotaClient struct {
	cfg    RESTConfig
	client *http.Client
}

func NewRESTQuotaClient(cfg RESTConfig) *RESTQuotaClient {
	return &RESTQuotaClient{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

func (c *RESTQuotaClient) rest() *RESTClient { return &RESTClient{cfg: c.cfg, client: c.client} }

// DefaultQuotaPerMinute returns the minimum per-minute quota value reported
// across all dimensions of the named quota.
func (c *RESTQuotaClient) DefaultQuotaPerMinute(ctx context.Context, service, quotaID, region string) (int64, error) {
	var result struct {
		Values []int64 `json:"values"`
	}
	if _, err := c.rest().do(ctx, http.MethodGet, "/v1/quotas/"+service+"/"+quotaID+"?region="+region, nil, &result); err != nil {
		return 0, err
	}
	if len(result.Values) == 0 {
		return 0, nil
	}
	min := result.Values[0]
	for _, v := range result.Values[1:] {
		if v < min {
			min = v
		}
	}
	return min, nil
}

// MinCatalogManagementQuotaPerMinute returns the minimum of the
// per-project-per-region and per-project-per-user-per-region read quotas for
// the target catalog, mirroring QuotaInfoAdapter's two-dimension lookup: a
// region's effective budget is bound by whichever dimension is tighter.
func (c *RESTQuotaClient) MinCatalogManagementQuotaPerMinute(ctx context.Context, service, region string) (int64, error) {
	perRegion, err := c.DefaultQuotaPerMinute(ctx, service, QuotaCatalogManagementReads, region)
	if err != nil {
		return 0, err
	}
	perUserPerRegion, err := c.DefaultQuotaPerMinute(ctx, service, QuotaCatalogManagementPerUserReads, region)
	if err != nil {
		return 0, err
	}
	if perUserPerRegion < perRegion {
		return perUserPerRegion, nil
	}
	return perRegion, nil
}

// RPSFromQuota converts a per-minute quota value to a per-second rate,
// rounding up so the derived RPS never undershoots the allowed budget.
func RPSFromQuota(perMinute int64) float64 {
	return math.Ceil(float64(perMinute) / 60.0)
}
