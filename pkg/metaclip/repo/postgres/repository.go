package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/metaclip/pkg/metaclip"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements metaclip.Catalog using PostgreSQL. Listing order
// comes from a bigserial sequence, which preserves insertion order.
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL catalog
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL catalog with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Migrate creates the items table if it does not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS items (
			seq BIGSERIAL,
			id UUID PRIMARY KEY,
			kind TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return handlePostgresError("migrate", err)
	}
	return nil
}

func (r *Repository) CreateItem(ctx context.Context, item *metaclip.Item) error {
	_, err := r.db.Exec(ctx,
		"INSERT INTO items (id, kind, content, created_at) VALUES ($1, $2, $3, $4)",
		item.ID, string(item.Kind), item.Content, item.CreatedAt)
	if err != nil {
		return handlePostgresError("create item", err)
	}
	return nil
}

func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (*metaclip.Item, error) {
	var item metaclip.Item
	var kind string
	err := r.db.QueryRow(ctx,
		"SELECT id, kind, content, created_at FROM items WHERE id = $1", id).
		Scan(&item.ID, &kind, &item.Content, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, metaclip.ErrItemNotFound
		}
		return nil, handlePostgresError("get item", err)
	}
	item.Kind = metaclip.ItemKind(kind)
	return &item, nil
}

func (r *Repository) ListItems(ctx context.Context) ([]*metaclip.Item, error) {
	rows, err := r.db.Query(ctx,
		"SELECT id, kind, content, created_at FROM items ORDER BY seq DESC")
	if err != nil {
		return nil, handlePostgresError("list items", err)
	}
	defer rows.Close()

	result := make([]*metaclip.Item, 0)
	for rows.Next() {
		var item metaclip.Item
		var kind string
		if err := rows.Scan(&item.ID, &kind, &item.Content, &item.CreatedAt); err != nil {
			return nil, handlePostgresError("list items", err)
		}
		item.Kind = metaclip.ItemKind(kind)
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgresError("list items", err)
	}
	return result, nil
}

func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM items WHERE id = $1", id)
	if err != nil {
		return handlePostgresError("delete item", err)
	}
	if tag.RowsAffected() == 0 {
		return metaclip.ErrItemNotFound
	}
	return nil
}

// Error handling helper
func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("item already exists")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}
