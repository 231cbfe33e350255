package posts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/dmitrijs2005/postboard/internal/dbx"
	"github.com/dmitrijs2005/postboard/internal/server/models"
)

// PostgresRepository implements post storage over a dbx.DBTX (*sql.DB or *sql.Tx).
// Image keys are kept in a JSONB column.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func encodeImages(images []string) ([]byte, error) {
	if images == nil {
		images = []string{}
	}
	return json.Marshal(images)
}

func decodeImages(raw []byte) ([]string, error) {
	images := []string{}
	if len(raw) == 0 {
		return images, nil
	}
	if err := json.Unmarshal(raw, &images); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}
	return images, nil
}

func (r *PostgresRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	images, err := encodeImages(post.Images)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO posts (user_id, name, description, images)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query, post.UserID, post.Name, post.Description, images).
		Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return post, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (*models.Post, error) {
	var (
		post models.Post
		raw  []byte
	)
	if err := s.Scan(&post.ID, &post.UserID, &post.Name, &post.Description, &raw, &post.CreatedAt, &post.UpdatedAt); err != nil {
		return nil, err
	}
	images, err := decodeImages(raw)
	if err != nil {
		return nil, err
	}
	post.Images = images
	return &post, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Post, error) {
	query := `
		SELECT id, user_id, name, description, images, created_at, updated_at
		FROM posts
		WHERE id = $1
	`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrPostNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return post, nil
}

// List returns posts newest first.
func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	query := `
		SELECT id, user_id, name, description, images, created_at, updated_at
		FROM posts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to select posts: %w", err)
	}
	defer rows.Close()

	var result []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, post *models.Post) error {
	images, err := encodeImages(post.Images)
	if err != nil {
		return err
	}

	query := `
		UPDATE posts
		SET name = $3, description = $4, images = $5, updated_at = now()
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, post.ID, post.UserID, post.Name, post.Description, images)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id, userID string) error {
	query := `
		DELETE FROM posts
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrPostNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
