package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsersRepository_CreateUnique(t *testing.T) {
	m := NewRepositoryManager()
	repo := m.Users(nil)
	ctx := context.Background()

	u, err := repo.Create(ctx, &models.User{UserName: "alice", Email: "a@x.io", PasswordHash: "h"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)

	_, err = repo.Create(ctx, &models.User{UserName: "alice", Email: "other@x.io"})
	var dup *users.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "username", dup.Field)
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	_, err = repo.Create(ctx, &models.User{UserName: "bob", Email: "a@x.io"})
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "email", dup.Field)
}

func TestUsersRepository_ConcurrentCreateOneWins(t *testing.T) {
	repo := NewUsersRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Create(ctx, &models.User{UserName: "alice", Email: "a@x.io"}); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestUsersRepository_ResetToken(t *testing.T) {
	repo := NewUsersRepository()
	ctx := context.Background()
	u, err := repo.Create(ctx, &models.User{UserName: "alice", Email: "a@x.io", PasswordHash: "old"})
	require.NoError(t, err)

	exp := time.Now().Add(time.Minute)
	require.NoError(t, repo.SetResetToken(ctx, u.ID, "tok", exp))

	got, err := repo.GetUserByResetToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.True(t, got.TokenExpiration.Equal(exp))

	assert.ErrorIs(t, repo.ConsumeResetToken(ctx, u.ID, "tok", "late", exp.Add(time.Second)), common.ErrorNotFound)
	require.NoError(t, repo.ConsumeResetToken(ctx, u.ID, "tok", "new", exp))
	assert.ErrorIs(t, repo.ConsumeResetToken(ctx, u.ID, "tok", "newer", exp), common.ErrorNotFound)

	got, err = repo.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.PasswordHash)
	assert.Nil(t, got.ResetToken)

	_, err = repo.GetUserByResetToken(ctx, "tok")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestProductsRepository_CRUD(t *testing.T) {
	m := NewRepositoryManager()
	ctx := context.Background()
	owner, err := m.Users(nil).Create(ctx, &models.User{UserName: "alice", Email: "a@x.io"})
	require.NoError(t, err)
	repo := m.Products(nil)

	p, err := repo.Create(ctx, &models.Product{Name: "Book", Price: 5, Category: models.CategoryBooks, OwnerID: owner.ID})
	require.NoError(t, err)

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.OwnerUserName)

	got.Name = "Better book"
	got.OwnerID = "someone-else"
	require.NoError(t, repo.Update(ctx, got))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Better book", list[0].Name)
	assert.Equal(t, owner.ID, list[0].OwnerID)

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err = repo.Get(ctx, p.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, p.ID), common.ErrorNotFound)
}

func TestProductsRepository_UnknownOwner(t *testing.T) {
	m := NewRepositoryManager()
	_, err := m.Products(nil).Create(context.Background(), &models.Product{Name: "x", OwnerID: "nobody"})
	assert.Error(t, err)
}
