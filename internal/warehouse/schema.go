// Copyright 2025 James Ross
package warehouse

// TableName identifies one of the declarative warehouse tables.
type TableName string

const (
	TableProjects               TableName = "projects"
	TableEntryGroups             TableName = "entry_groups"
	TableTagTemplates            TableName = "tag_templates"
	TableEntryGroupsMapping      TableName = "entry_groups_mapping"
	TableTagTemplatesMapping     TableName = "tag_templates_mapping"
	TableIamPolicies             TableName = "iam_policies"
	TableAuditLogAccess          TableName = "audit_log_access"
)

// Column is one field of a table schema.
type Column struct {
	Name string
	Type string
}

// TableSchema declares a table's columns and partitioning.
// RequirePartitionFilter=true marks tables whose reads filter on one concrete
// partition date; the flag is declarative and Query does not check it.
type TableSchema struct {
	Name                   TableName
	Columns                []Column
	Partitioned            bool
	PartitionColumn        string
	RequirePartitionFilter bool
	OrderBy                []string
}

var schemas = map[TableName]TableSchema{
	TableProjects: {
		Name: TableProjects,
		Columns: []Column{
			{"project_id", "String"},
			{"project_number", "Int64"},
			{"data_catalog_api_enabled", "UInt8"},
			{"target_api_enabled", "UInt8"},
			{"ancestry", "String"},
			{"created_at", "Date"},
		},
		Partitioned:            true,
		PartitionColumn:        "created_at",
		RequirePartitionFilter: true,
		OrderBy:                []string{"project_id"},
	},
	TableEntryGroups: {
		Name: TableEntryGroups,
		Columns: []Column{
			{"project_id", "String"},
			{"location", "String"},
			{"entry_group_id", "String"},
			{"legacy_resource_name", "String"},
			{"target_resource_name", "String"},
			{"managing_system", "String"},
			{"created_at", "Date"},
		},
		Partitioned:            true,
		PartitionColumn:        "created_at",
		RequirePartitionFilter: true,
		OrderBy:                []string{"legacy_resource_name"},
	},
	TableTagTemplates: {
		Name: TableTagTemplates,
		Columns: []Column{
			{"project_id", "String"},
			{"location", "String"},
			{"tag_template_id", "String"},
			{"legacy_resource_name", "String"},
			{"target_resource_name", "String"},
			{"managing_system", "String"},
			{"is_publicly_readable", "UInt8"},
			{"created_at", "Date"},
		},
		Partitioned:            true,
		PartitionColumn:        "created_at",
		RequirePartitionFilter: true,
		OrderBy:                []string{"legacy_resource_name"},
	},
	TableEntryGroupsMapping: {
		Name: TableEntryGroupsMapping,
		Columns: []Column{
			{"legacy_resource_name", "String"},
			{"target_resource_name", "String"},
			{"created_at", "Date"},
		},
		Partitioned:            true,
		PartitionColumn:        "created_at",
		RequirePartitionFilter: true,
		OrderBy:                []string{"legacy_resource_name"},
	},
	TableTagTemplatesMapping: {
		Name: TableTagTemplatesMapping,
		Columns: []Column{
			{"legacy_resource_name", "String"},
			{"target_resource_name", "String"},
			{"created_at", "Date"},
		},
		Partitioned:            true,
		PartitionColumn:        "created_at",
		RequirePartitionFilter: true,
		OrderBy:                []string{"legacy_resource_name"},
	},
	TableIamPolicies: {
		Name: TableIamPolicies,
		Columns: []Column{
			{"resource_name", "String"},
			{"managing_system", "String"},
			{"bindings", "String"},
			{"created_at", "Date"},
		},
		Partitioned:            true,
		PartitionColumn:        "created_at",
		RequirePartitionFilter: true,
		OrderBy:                []string{"resource_name", "managing_system"},
	},
	TableAuditLogAccess: {
		Name: TableAuditLogAccess,
		Columns: []Column{
			{"resource_name", "String"},
			{"principal_email", "String"},
			{"method_name", "String"},
			{"accessed_at", "DateTime"},
		},
		Partitioned:            true,
		PartitionColumn:        "accessed_at",
		RequirePartitionFilter: false,
		OrderBy:                []string{"resource_name", "accessed_at"},
	},
}

// Schema returns the declarative schema for a table name.
func Schema(name TableName) (TableSchema, bool) {
	s, ok := schemas[name]
	return s, ok
}

func (s TableSchema) createSQL(database string) string {
	cols := ""
	for _, c := range s.Columns {
		cols += "\n\t" + c.Name + " " + c.Type + ","
	}
	cols = cols[:len(cols)-1]
	partitionClause := ""
	if s.Partitioned {
		partitionClause = "\nPARTITION BY " + s.PartitionColumn
	}
	orderBy := "tuple()"
	if len(s.OrderBy) > 0 {
		orderBy = "("
		for i, c := range s.OrderBy {
			if i > 0 {
				orderBy += ", "
			}
			orderBy += c
		}
		orderBy += ")"
	}
	return "CREATE TABLE IF NOT EXISTS " + database + "." + string(s.Name) + " (" + cols + "\n) ENGINE = MergeTree()" +
		partitionClause + "\nORDER BY " + orderBy
}
