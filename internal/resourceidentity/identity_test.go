// Copyright 2025 James Ross
package resourceidentity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegacyFQNRoundTrip(t *testing.T) {
	cases := []struct {
		kind     ResourceKind
		project  string
		location string
		id       string
	}{
		{KindEntryGroup, "prj1", "us-west1", "eg1"},
		{KindTagTemplate, "prj1", "us-central1", "tt1"},
	}
	for _, c := range cases {
		fqn := FormatLegacyFQN(c.kind, c.project, c.location, c.id)
		project, location, id, err := ParseLegacyFQN(c.kind, fqn)
		require.NoError(t, err)
		assert.Equal(t, c.project, project)
		assert.Equal(t, c.location, location)
		assert.Equal(t, c.id, id)
	}
}

func TestTargetFQNRoundTrip(t *testing.T) {
	fqn := FormatTargetFQN(KindTagTemplate, "prj1", "global", "tt1")
	assert.Equal(t, "projects/prj1/locations/global/aspectTypes/tt1", fqn)
	project, location, id, err := ParseTargetFQN(KindTagTemplate, fqn)
	require.NoError(t, err)
	assert.Equal(t, "prj1", project)
	assert.Equal(t, "global", location)
	assert.Equal(t, "tt1", id)

	egFqn := FormatTargetFQN(KindEntryGroup, "prj1", "us-west1", "eg1")
	project, location, id, err = ParseTargetFQN(KindEntryGroup, egFqn)
	require.NoError(t, err)
	assert.Equal(t, "prj1", project)
	assert.Equal(t, "us-west1", location)
	assert.Equal(t, "eg1", id)
}

func TestParseLegacyFQNMalformed(t *testing.T) {
	_, _, _, err := ParseLegacyFQN(KindEntryGroup, "not-a-resource-name")
	require.Error(t, err)
}

func TestRegionSuffixedID(t *testing.T) {
	assert.Equal(t, "eg1_us-west1", RegionSuffixedID("eg1", "us-west1"))
}

func TestProjectMergeORsFlags(t *testing.T) {
	a := Project{ProjectID: "prj1", DataCatalogAPIEnabled: true}
	b := Project{ProjectID: "prj1", TargetAPIEnabled: true}
	merged := a.Merge(b)
	assert.True(t, merged.DataCatalogAPIEnabled)
	assert.True(t, merged.TargetAPIEnabled)
}
