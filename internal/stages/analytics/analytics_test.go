// Copyright 2025 James Ross
package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/migerr"
)

type fakeStore struct {
	present map[string]bool
	created []string
}

func (f *fakeStore) TableExists(ctx context.Context, name string) (bool, error) {
	return f.present[name], nil
}

func (f *fakeStore) EnsureView(ctx context.Context, sqlBody string) error {
	f.created = append(f.created, sqlBody)
	return nil
}

func TestRunFailsWithMissingTablesNamed(t *testing.T) {
	store := &fakeStore{present: map[string]bool{"iam_policies": true}}
	s := &Setup{Store: store, Database: "migration", Log: zap.NewNop()}

	err := s.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, migerr.KindInputMissing, migerr.KindOf(err))
	assert.Contains(t, err.Error(), "audit_log_access")
	assert.Empty(t, store.created)
}

func TestRunCreatesAllViewsWhenPreconditionsMet(t *testing.T) {
	store := &fakeStore{present: map[string]bool{
		"audit_log_access":       true,
		"iam_policies":           true,
		"tag_templates_current":  true,
		"entry_groups_current":   true,
	}}
	s := &Setup{Store: store, Database: "migration", Log: zap.NewNop()}

	require.NoError(t, s.Run(context.Background()))
	assert.Len(t, store.created, 3)
}
