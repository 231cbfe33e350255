package users

import (
	"context"
	"sync"
	"testing"

	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/dmitrijs2005/postboard/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_CreateAndFind(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	u, err := repo.Create(ctx, &models.User{UserName: "alice", Email: "a@x.com", PasswordHash: "h"})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)

	byName, err := repo.FindByUserNameOrEmail(ctx, "alice", "")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	byEmail, err := repo.FindByUserNameOrEmail(ctx, "", "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.UserName)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = repo.FindByUserNameOrEmail(ctx, "bob", "b@x.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryRepository_Uniqueness(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, &models.User{UserName: "alice", Email: "a@x.com"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &models.User{UserName: "alice", Email: "other@x.com"})
	assert.ErrorIs(t, err, common.ErrUserAlreadyExists)

	_, err = repo.Create(ctx, &models.User{UserName: "other", Email: "a@x.com"})
	assert.ErrorIs(t, err, common.ErrUserAlreadyExists)
}

func TestMemoryRepository_ConcurrentCreateSameName(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, &models.User{UserName: "race", Email: "race@x.com"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok int
	for err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, common.ErrUserAlreadyExists)
		}
	}
	assert.Equal(t, 1, ok)
}
