// Copyright 2025 James Ross
package cliflags

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequiresProject(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	_, err := Parse(fs, []string{"-dataset-name", "x"})
	require.Error(t, err)
}

func TestParseDefaults(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c, err := Parse(fs, []string{"-project", "prj1"})
	require.NoError(t, err)
	assert.Equal(t, "prj1", c.Project)
	assert.Equal(t, "US", c.DatasetLocation)
	assert.Equal(t, 50, c.QuotaPercent)
	assert.False(t, c.DryRun)
}

func TestQuotaPercentOutOfRange(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	_, err := Parse(fs, []string{"-project", "prj1", "-quota-consumption", "150"})
	require.Error(t, err)
}

func TestResourceTypeList(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c, err := Parse(fs, []string{"-project", "prj1", "-resource-types", " entry_group , tag_template "})
	require.NoError(t, err)
	assert.Equal(t, []string{"entry_group", "tag_template"}, c.ResourceTypeList())
}

func TestStr2Bool(t *testing.T) {
	for _, s := range []string{"yes", "true", "Y", "1"} {
		v, err := Str2Bool(s)
		require.NoError(t, err)
		assert.True(t, v, s)
	}
	for _, s := range []string{"no", "false", "N", "0", ""} {
		v, err := Str2Bool(s)
		require.NoError(t, err)
		assert.False(t, v, s)
	}
}
