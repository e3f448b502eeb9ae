package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-dashboard/internal/domain"
	"finance-dashboard/internal/storage"
)

func TestAccountStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAccountStore(pool)

	acc := &domain.Account{
		AccountID: "acc-001",
		Name:      "Main checking",
		Kind:      domain.AccountChecking,
		Currency:  "EUR",
		Balance:   2450.75,
		CreatedAt: 1704067200000,
	}
	require.NoError(t, store.Insert(ctx, acc))

	retrieved, err := store.GetByID(ctx, "acc-001")
	require.NoError(t, err)

	assert.Equal(t, acc.AccountID, retrieved.AccountID)
	assert.Equal(t, acc.Name, retrieved.Name)
	assert.Equal(t, acc.Kind, retrieved.Kind)
	assert.Equal(t, acc.Currency, retrieved.Currency)
	assert.InDelta(t, acc.Balance, retrieved.Balance, 0.0001)
	assert.Equal(t, acc.CreatedAt, retrieved.CreatedAt)
}

func TestAccountStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAccountStore(pool)

	acc := &domain.Account{AccountID: "acc-dup", Name: "Dup", Kind: domain.AccountCash, Currency: "USD"}
	require.NoError(t, store.Insert(ctx, acc))

	err := store.Insert(ctx, acc)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestAccountStore_UpdateAndNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAccountStore(pool)

	_, err := store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = store.Update(ctx, &domain.Account{AccountID: "missing"})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	createTestAccount(t, ctx, pool, "acc-upd")
	require.NoError(t, store.Update(ctx, &domain.Account{
		AccountID: "acc-upd",
		Name:      "Renamed",
		Kind:      domain.AccountSavings,
		Currency:  "USD",
		Balance:   -12.5,
	}))

	got, err := store.GetByID(ctx, "acc-upd")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, domain.AccountSavings, got.Kind)
	assert.InDelta(t, -12.5, got.Balance, 0.0001)
	assert.Equal(t, int64(1704067200000), got.CreatedAt)
}

func TestAccountStore_List(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAccountStore(pool)

	createTestAccount(t, ctx, pool, "acc-b")
	createTestAccount(t, ctx, pool, "acc-a")

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "acc-a", list[0].AccountID)
	assert.Equal(t, "acc-b", list[1].AccountID)
}
