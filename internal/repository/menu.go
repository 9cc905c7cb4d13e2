package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"storefront/internal/entity"
)

type MenuRepository struct {
	db *sql.DB
}

func NewMenuRepository(db *sql.DB) *MenuRepository {
	return &MenuRepository{db}
}

const menuColumns = `id, name, description, price, image_url, category, is_available, created_at`

func scanMenuItem(row rowScanner) (*entity.MenuItem, error) {
	item := &entity.MenuItem{}
	err := row.Scan(&item.ID, &item.Name, &item.Description, &item.Price, &item.ImageURL, &item.Category,
		&item.IsAvailable, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *MenuRepository) GetMenuItems(ctx context.Context) ([]entity.MenuItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+menuColumns+` FROM menu_items ORDER BY category, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMenuItems(rows)
}

// GetMenuItemsByIDs returns the items that exist among ids. Missing ids are
// simply absent from the result.
func (r *MenuRepository) GetMenuItemsByIDs(ctx context.Context, ids []int64) ([]entity.MenuItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := `SELECT ` + menuColumns + ` FROM menu_items WHERE id IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMenuItems(rows)
}

func (r *MenuRepository) GetMenuItemByID(ctx context.Context, id int64) (*entity.MenuItem, error) {
	item, err := scanMenuItem(r.db.QueryRowContext(ctx, `SELECT `+menuColumns+` FROM menu_items WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return item, err
}

func (r *MenuRepository) CreateMenuItem(ctx context.Context, item *entity.MenuItem) (*entity.MenuItem, error) {
	query := `INSERT INTO menu_items (name, description, price, image_url, category, is_available, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, item.Name, item.Description, item.Price, item.ImageURL, item.Category,
		item.IsAvailable, item.CreatedAt)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	item.ID = id
	return item, nil
}

func (r *MenuRepository) UpdateMenuItem(ctx context.Context, item *entity.MenuItem) error {
	query := `UPDATE menu_items SET name = ?, description = ?, price = ?, image_url = ?, category = ?, is_available = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, item.Name, item.Description, item.Price, item.ImageURL, item.Category,
		item.IsAvailable, item.ID)
	return err
}

func (r *MenuRepository) DeleteMenuItem(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func collectMenuItems(rows *sql.Rows) ([]entity.MenuItem, error) {
	var items []entity.MenuItem
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}
