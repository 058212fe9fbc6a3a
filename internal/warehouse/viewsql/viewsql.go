// Copyright 2025 James Ross
//
// Package viewsql holds the SQL text for the warehouse's derived views.
// These bodies are data, not logic: the orchestration core never parses or
// reasons about them, it only asks the warehouse adapter to create them.
package viewsql

// ViewName identifies one of the declarative warehouse views.
type ViewName string

const (
	ViewEntryGroups               ViewName = "entry_groups_current"
	ViewTagTemplates              ViewName = "tag_templates_current"
	ViewResourceInteractions      ViewName = "resource_interactions"
	ViewResourceInteractionsSummary ViewName = "resource_interactions_summary"
	ViewIamPoliciesComparison     ViewName = "iam_policies_comparison"
)

// SQL renders the CREATE VIEW body for name against the given database,
// mirroring the LEFT JOIN between a snapshot table and its mapping table
// used by the original ViewSQLStatements.
func SQL(database string, name ViewName) string {
	switch name {
	case ViewEntryGroups:
		return `CREATE VIEW IF NOT EXISTS ` + database + `.` + string(name) + ` AS
SELECT
	eg.project_id,
	eg.location,
	eg.entry_group_id,
	eg.legacy_resource_name,
	m.target_resource_name,
	eg.managing_system,
	eg.created_at
FROM ` + database + `.entry_groups eg
LEFT JOIN ` + database + `.entry_groups_mapping m
	ON eg.legacy_resource_name = m.legacy_resource_name`

	case ViewTagTemplates:
		return `CREATE VIEW IF NOT EXISTS ` + database + `.` + string(name) + ` AS
SELECT
	tt.project_id,
	tt.location,
	tt.tag_template_id,
	tt.legacy_resource_name,
	m.target_resource_name,
	tt.managing_system,
	tt.is_publicly_readable,
	tt.created_at
FROM ` + database + `.tag_templates tt
LEFT JOIN ` + database + `.tag_templates_mapping m
	ON tt.legacy_resource_name = m.legacy_resource_name`

	case ViewResourceInteractions:
		return `CREATE VIEW IF NOT EXISTS ` + database + `.` + string(name) + ` AS
SELECT
	a.resource_name,
	a.principal_email,
	a.method_name,
	a.accessed_at,
	p.managing_system
FROM ` + database + `.audit_log_access a
LEFT JOIN ` + database + `.iam_policies p
	ON a.resource_name = p.resource_name`

	case ViewResourceInteractionsSummary:
		return `CREATE VIEW IF NOT EXISTS ` + database + `.` + string(name) + ` AS
SELECT
	resource_name,
	count() AS interaction_count,
	max(accessed_at) AS last_accessed_at
FROM ` + database + `.` + string(ViewResourceInteractions) + `
GROUP BY resource_name`

	case ViewIamPoliciesComparison:
		return `CREATE VIEW IF NOT EXISTS ` + database + `.` + string(name) + ` AS
SELECT
	legacy.resource_name,
	legacy.bindings AS legacy_bindings,
	target.bindings AS target_bindings
FROM (SELECT * FROM ` + database + `.iam_policies WHERE managing_system = 'LEGACY') legacy
FULL OUTER JOIN (SELECT * FROM ` + database + `.iam_policies WHERE managing_system = 'TARGET') target
	ON legacy.resource_name = target.resource_name`

	default:
		return ""
	}
}

// RequiredTablesFor lists the tables and views name's SQL body reads from,
// or nil for an unknown view.
func RequiredTablesFor(name ViewName) []string {
	switch name {
	case ViewEntryGroups:
		return []string{"entry_groups", "entry_groups_mapping"}
	case ViewTagTemplates:
		return []string{"tag_templates", "tag_templates_mapping"}
	case ViewResourceInteractions:
		return []string{"audit_log_access", "iam_policies"}
	case ViewResourceInteractionsSummary:
		return []string{string(ViewResourceInteractions)}
	case ViewIamPoliciesComparison:
		return []string{"iam_policies"}
	}
	return nil
}

// RequiredForAnalyticsSetup lists the fixed set of tables and views that
// must already exist before any of the three analytics views are created,
// mirroring the original's flat required_tables_and_views precondition
// list checked once for the whole batch, not per view.
func RequiredForAnalyticsSetup() []string {
	return []string{
		"audit_log_access",
		"iam_policies",
		string(ViewTagTemplates),
		string(ViewEntryGroups),
	}
}
