// Copyright 2025 James Ross
//
// Package pipelinequery builds each controller's typed work list by reading
// the latest warehouse partition of the tables earlier stages wrote. It is
// glue, not a stage of its own: every query here just reshapes rows a prior
// stage already produced into the ResourceRef/TemplateRef types a
// controller's Run method takes.
package pipelinequery

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/migerr"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/resourceidentity"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/stages/cleanup"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/stages/convertvisibility"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/stages/fetchpolicies"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/stages/mapidentifiers"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/stages/transfer"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/warehouse"
)

// Warehouse is the subset of *warehouse.Adapter this package needs.
type Warehouse interface {
	LatestPartitionDate(ctx context.Context, table warehouse.TableName, asOf time.Time) (time.Time, error)
	Query(ctx context.Context, query string, args []any, scanRow func(*sql.Rows) error) error
}

// latest resolves the latest partition of table as of now, turning "no data
// yet" into an empty result set rather than an error — a fresh environment
// legitimately has nothing to enumerate yet.
func latest(ctx context.Context, wh Warehouse, table warehouse.TableName) (time.Time, bool, error) {
	ts, err := wh.LatestPartitionDate(ctx, table, time.Now().UTC())
	if migerr.KindOf(err) == migerr.KindInputMissing {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return ts, true, nil
}

// ProjectIDsInScope returns every project from the latest projects partition
// that has either catalog API enabled.
func ProjectIDsInScope(ctx context.Context, wh Warehouse, db string) ([]string, error) {
	ts, ok, err := latest(ctx, wh, warehouse.TableProjects)
	if err != nil || !ok {
		return nil, err
	}
	var ids []string
	q := fmt.Sprintf("SELECT project_id FROM %s.%s WHERE created_at = ? AND (data_catalog_api_enabled = 1 OR target_api_enabled = 1)", db, warehouse.TableProjects)
	err = wh.Query(ctx, q, []any{ts}, func(rows *sql.Rows) error {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	})
	return ids, err
}

// MapIdentifierCandidates returns every legacy-managed entry group and tag
// template from the latest snapshot, the work list for stage S3.
func MapIdentifierCandidates(ctx context.Context, wh Warehouse, db string) ([]mapidentifiers.ResourceRef, error) {
	var out []mapidentifiers.ResourceRef
	for _, t := range []struct {
		table    warehouse.TableName
		idColumn string
		kind     resourceidentity.ResourceKind
	}{
		{warehouse.TableEntryGroups, "entry_group_id", resourceidentity.KindEntryGroup},
		{warehouse.TableTagTemplates, "tag_template_id", resourceidentity.KindTagTemplate},
	} {
		ts, ok, err := latest(ctx, wh, t.table)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		q := fmt.Sprintf("SELECT project_id, location, %s FROM %s.%s WHERE created_at = ? AND managing_system = ?", t.idColumn, db, t.table)
		err = wh.Query(ctx, q, []any{ts, string(resourceidentity.SystemLegacy)}, func(rows *sql.Rows) error {
			var r mapidentifiers.ResourceRef
			r.Kind = t.kind
			if err := rows.Scan(&r.ProjectID, &r.Location, &r.LocalID); err != nil {
				return err
			}
			out = append(out, r)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// FetchPolicyCandidates returns one ResourceRef per legacy entry group/tag
// template, carrying its target name (if mapped yet) and the set of systems
// whose policy should be fetched: always LEGACY, plus TARGET once mapped.
func FetchPolicyCandidates(ctx context.Context, wh Warehouse, db string) ([]fetchpolicies.ResourceRef, error) {
	var out []fetchpolicies.ResourceRef
	for _, t := range []struct {
		table       warehouse.TableName
		mappingTbl  warehouse.TableName
		kind        resourceidentity.ResourceKind
	}{
		{warehouse.TableEntryGroups, warehouse.TableEntryGroupsMapping, resourceidentity.KindEntryGroup},
		{warehouse.TableTagTemplates, warehouse.TableTagTemplatesMapping, resourceidentity.KindTagTemplate},
	} {
		ts, ok, err := latest(ctx, wh, t.table)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		mappingTS, mappingOK, err := latest(ctx, wh, t.mappingTbl)
		if err != nil {
			return nil, err
		}

		q := fmt.Sprintf("SELECT project_id, location, legacy_resource_name FROM %s.%s WHERE created_at = ?", db, t.table)
		err = wh.Query(ctx, q, []any{ts}, func(rows *sql.Rows) error {
			var r fetchpolicies.ResourceRef
			r.Kind = t.kind
			if err := rows.Scan(&r.ProjectID, &r.TargetLocation, &r.LegacyName); err != nil {
				return err
			}
			r.Systems = []resourceidentity.ManagingSystem{resourceidentity.SystemLegacy}
			if mappingOK {
				targetName, err := targetNameFor(ctx, wh, db, t.mappingTbl, mappingTS, r.LegacyName)
				if err != nil {
					return err
				}
				if targetName != "" {
					r.TargetName = targetName
					r.Systems = append(r.Systems, resourceidentity.SystemTarget)
				}
			}
			out = append(out, r)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func targetNameFor(ctx context.Context, wh Warehouse, db string, mappingTbl warehouse.TableName, ts time.Time, legacyName string) (string, error) {
	q := fmt.Sprintf("SELECT target_resource_name FROM %s.%s WHERE created_at = ? AND legacy_resource_name = ?", db, mappingTbl)
	var name string
	err := wh.Query(ctx, q, []any{ts, legacyName}, func(rows *sql.Rows) error {
		return rows.Scan(&name)
	})
	return name, err
}

// VisibilityCandidates returns every target-managed tag template not yet
// publicly readable, the work list for stage S5.
func VisibilityCandidates(ctx context.Context, wh Warehouse, db string) ([]convertvisibility.TemplateRef, error) {
	ts, ok, err := latest(ctx, wh, warehouse.TableTagTemplates)
	if err != nil || !ok {
		return nil, err
	}
	var out []convertvisibility.TemplateRef
	q := fmt.Sprintf("SELECT target_resource_name, location FROM %s.%s WHERE created_at = ? AND managing_system = ? AND is_publicly_readable = 0", db, warehouse.TableTagTemplates)
	err = wh.Query(ctx, q, []any{ts, string(resourceidentity.SystemTarget)}, func(rows *sql.Rows) error {
		var ref convertvisibility.TemplateRef
		if err := rows.Scan(&ref.ResourceName, &ref.Location); err != nil {
			return err
		}
		out = append(out, ref)
		return nil
	})
	return out, err
}

// TransferCandidates returns every legacy-managed entry group/tag template's
// resource name, the work list for stage S6.
func TransferCandidates(ctx context.Context, wh Warehouse, db string) ([]transfer.ResourceRef, error) {
	var out []transfer.ResourceRef
	for _, table := range []warehouse.TableName{warehouse.TableEntryGroups, warehouse.TableTagTemplates} {
		ts, ok, err := latest(ctx, wh, table)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		q := fmt.Sprintf("SELECT legacy_resource_name FROM %s.%s WHERE created_at = ? AND managing_system = ?", db, table)
		err = wh.Query(ctx, q, []any{ts, string(resourceidentity.SystemLegacy)}, func(rows *sql.Rows) error {
			var ref transfer.ResourceRef
			if err := rows.Scan(&ref.ResourceName); err != nil {
				return err
			}
			out = append(out, ref)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// CleanupCandidates returns the legacy resource name of every entry
// group/tag template whose managing system has already flipped to TARGET,
// the work list for stage S7.
func CleanupCandidates(ctx context.Context, wh Warehouse, db string) ([]cleanup.ResourceRef, error) {
	var out []cleanup.ResourceRef
	for _, table := range []warehouse.TableName{warehouse.TableEntryGroups, warehouse.TableTagTemplates} {
		ts, ok, err := latest(ctx, wh, table)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		q := fmt.Sprintf("SELECT legacy_resource_name FROM %s.%s WHERE created_at = ? AND managing_system = ?", db, table)
		err = wh.Query(ctx, q, []any{ts, string(resourceidentity.SystemTarget)}, func(rows *sql.Rows) error {
			var ref cleanup.ResourceRef
			if err := rows.Scan(&ref.ResourceName); err != nil {
				return err
			}
			out = append(out, ref)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
