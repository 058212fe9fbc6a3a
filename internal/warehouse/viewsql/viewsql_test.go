// Copyright 2025 James Ross
package viewsql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSQLJoinsMappingTable(t *testing.T) {
	sql := SQL("migration", ViewEntryGroups)
	assert.Contains(t, sql, "LEFT JOIN migration.entry_groups_mapping m")
	assert.Contains(t, sql, "ON eg.legacy_resource_name = m.legacy_resource_name")
}

func TestRequiredTablesForKnownView(t *testing.T) {
	assert.ElementsMatch(t, []string{"entry_groups", "entry_groups_mapping"}, RequiredTablesFor(ViewEntryGroups))
	assert.ElementsMatch(t, []string{"iam_policies"}, RequiredTablesFor(ViewIamPoliciesComparison))
}

func TestRequiredTablesForUnknownView(t *testing.T) {
	assert.Nil(t, RequiredTablesFor(ViewName("nonexistent")))
}
