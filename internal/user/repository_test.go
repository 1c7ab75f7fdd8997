package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/storefront-backend/internal/auth"
)

func TestInMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository([]User{{ID: 7, Email: "Seed@Example.com", Role: auth.RoleCustomer}})

	_, err := repo.Create(ctx, User{Email: "seed@example.com"})
	assert.ErrorIs(t, err, ErrEmailExists)

	created, err := repo.Create(ctx, User{Email: "new@example.com", Password: "hash", Role: auth.RoleCustomer})
	require.NoError(t, err)
	assert.Equal(t, 8, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := repo.GetByEmail(ctx, "NEW@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	updated, err := repo.Update(ctx, User{ID: created.ID, FirstName: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "Ann", updated.FirstName)
	assert.Equal(t, "hash", updated.Password)
	assert.Equal(t, auth.RoleCustomer, updated.Role)

	_, err = repo.Update(ctx, User{ID: 99})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByID(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 7, all[0].ID)
	assert.Equal(t, 8, all[1].ID)
}
