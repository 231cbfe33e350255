package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/dmitrijs2005/postboard/internal/dbx"
	"github.com/dmitrijs2005/postboard/internal/server/models"
)

// PostgresRepository relies on refresh_tokens.user_id being the primary key:
// the upsert and the conditional update serialize writers per user.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, rt *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET token_hash = EXCLUDED.token_hash, expires_at = EXCLUDED.expires_at, created_at = now()
	`
	if _, err := r.db.ExecContext(ctx, query, rt.UserID, rt.TokenHash, rt.ExpiresAt); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	query := `
		SELECT user_id, token_hash, expires_at, created_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`
	rt := &models.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(&rt.UserID, &rt.TokenHash, &rt.ExpiresAt, &rt.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rt, nil
}

func (r *PostgresRepository) Replace(ctx context.Context, oldHash string, next *models.RefreshToken) (bool, error) {
	query := `
		UPDATE refresh_tokens
		SET token_hash = $3, expires_at = $4, created_at = now()
		WHERE user_id = $1 AND token_hash = $2
	`
	res, err := r.db.ExecContext(ctx, query, next.UserID, oldHash, next.TokenHash, next.ExpiresAt)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) DeleteByUserID(ctx context.Context, userID string) error {
	query := `
		DELETE FROM refresh_tokens
		WHERE user_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
