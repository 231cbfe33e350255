// Package repomanager vends repository implementations bound to a database
// handle and owns schema migrations and transactions.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/postboard/internal/dbx"
	"github.com/dmitrijs2005/postboard/internal/server/repositories/posts"
	"github.com/dmitrijs2005/postboard/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/postboard/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to either the shared handle
// (DB) or the handle passed to a WithTx callback.
type RepositoryManager interface {
	dbx.TxRunner

	RunMigrations(ctx context.Context) error
	DB() dbx.DBTX
	Close() error

	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Posts(db dbx.DBTX) posts.Repository
}
