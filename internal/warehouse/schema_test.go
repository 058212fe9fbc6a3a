// Copyright 2025 James Ross
package warehouse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateSQLIncludesPartitionAndOrderBy(t *testing.T) {
	schema, ok := Schema(TableEntryGroups)
	assert.True(t, ok)

	sql := schema.createSQL("migration")
	assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS migration.entry_groups")
	assert.Contains(t, sql, "PARTITION BY created_at")
	assert.Contains(t, sql, "ORDER BY (legacy_resource_name)")
	assert.Contains(t, sql, "legacy_resource_name String")
}

func TestSchemaUnknownTable(t *testing.T) {
	_, ok := Schema("not_a_table")
	assert.False(t, ok)
}

func TestAllDeclaredSchemasRequirePartitionColumnWhenPartitioned(t *testing.T) {
	for name, s := range schemas {
		if s.Partitioned {
			assert.NotEmpty(t, s.PartitionColumn, "table %s", name)
		}
	}
}
