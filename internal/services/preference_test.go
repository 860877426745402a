package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardikSrivastav/imp-mail-sub002/internal/domain"
)

func TestPreferenceService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("stores allowed page size", func(t *testing.T) {
		repo := newFakePrefRepo()
		svc := NewPreferenceService(repo)

		prefs, err := svc.Update(ctx, "u1", 50, false)
		require.NoError(t, err)
		assert.Equal(t, 50, prefs.ItemsPerPage)
		assert.False(t, prefs.AutoClassify)
		assert.False(t, prefs.UpdatedAt.IsZero())

		stored, err := svc.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 50, stored.ItemsPerPage)
	})

	t.Run("rejects disallowed page size", func(t *testing.T) {
		svc := NewPreferenceService(newFakePrefRepo())
		_, err := svc.Update(ctx, "u1", 33, true)
		require.Error(t, err)
	})
}

func TestPreferenceService_GetDefaults(t *testing.T) {
	svc := NewPreferenceService(newFakePrefRepo())
	prefs, err := svc.Get(context.Background(), "new-user")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultItemsPerPage, prefs.ItemsPerPage)
	assert.True(t, prefs.AutoClassify)
}
