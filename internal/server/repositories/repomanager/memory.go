package repomanager

import (
	"context"

	"github.com/dmitrijs2005/postboard/internal/dbx"
	"github.com/dmitrijs2005/postboard/internal/server/repositories/posts"
	"github.com/dmitrijs2005/postboard/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/postboard/internal/server/repositories/users"
)

// InMemoryRepositoryManager serves process-local stores. The DBTX arguments
// are ignored and WithTx gives no rollback; each store is individually
// mutex-guarded.
type InMemoryRepositoryManager struct {
	users         *users.MemoryRepository
	refreshTokens *refreshtokens.MemoryRepository
	posts         *posts.MemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		users:         users.NewMemoryRepository(),
		refreshTokens: refreshtokens.NewMemoryRepository(),
		posts:         posts.NewMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *InMemoryRepositoryManager) DB() dbx.DBTX { return nil }

func (m *InMemoryRepositoryManager) Close() error { return nil }

func (m *InMemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return fn(ctx, nil)
}

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return m.users }

func (m *InMemoryRepositoryManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return m.refreshTokens
}

func (m *InMemoryRepositoryManager) Posts(dbx.DBTX) posts.Repository { return m.posts }
