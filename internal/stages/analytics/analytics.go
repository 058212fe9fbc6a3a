// Copyright 2025 James Ross
//
// Package analytics implements the analytics setup stage: it creates the
// derived views over iamPolicies and auditLogAccess. It is a setup stage,
// not a data-movement one — it checks every upstream table/view exists
// before attempting creation and fails cleanly naming what is missing,
// mirroring the original's check-then-create sequence.
package analytics

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/migerr"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/warehouse/viewsql"
)

// Store is the subset of the warehouse adapter this stage needs.
type Store interface {
	TableExists(ctx context.Context, name string) (bool, error)
	EnsureView(ctx context.Context, sqlBody string) error
}

// Views is the ordered set of derived views this stage creates. Order
// matters: resourceInteractionsSummary depends on resourceInteractions
// existing as a view, not a base table.
var Views = []viewsql.ViewName{
	viewsql.ViewResourceInteractions,
	viewsql.ViewResourceInteractionsSummary,
	viewsql.ViewIamPoliciesComparison,
}

// Setup creates every view in Views against database, after confirming all
// required upstream tables/views are present.
type Setup struct {
	Store    Store
	Database string
	Log      *zap.Logger
}

// Run checks the fixed precondition list once before creating any view,
// then creates each view in Views in order.
func (s *Setup) Run(ctx context.Context) error {
	var missing []string
	for _, required := range viewsql.RequiredForAnalyticsSetup() {
		exists, err := s.Store.TableExists(ctx, required)
		if err != nil {
			return err
		}
		if !exists {
			s.Log.Warn("required table or view is missing", zap.String("name", required))
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return migerr.New(migerr.KindInputMissing, "the following required tables or views are missing: "+strings.Join(missing, ", "))
	}

	for _, v := range Views {
		if err := s.Store.EnsureView(ctx, viewsql.SQL(s.Database, v)); err != nil {
			return err
		}
		s.Log.Info("ensured analytics view", zap.String("view", string(v)))
	}
	return nil
}
