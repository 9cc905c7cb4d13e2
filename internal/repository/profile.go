package repository

import (
	"context"
	"database/sql"
	"errors"

	"storefront/internal/entity"
)

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db}
}

func (r *ProfileRepository) GetProfile(ctx context.Context, userID string) (*entity.Profile, error) {
	p := &entity.Profile{}
	err := r.db.QueryRowContext(ctx, `SELECT id, full_name, points FROM profiles WHERE id = ?`, userID).
		Scan(&p.ID, &p.FullName, &p.Points)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreateProfile inserts an empty profile unless one already exists.
func (r *ProfileRepository) CreateProfile(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `INSERT IGNORE INTO profiles (id, points) VALUES (?, 0)`, userID)
	return err
}

func (r *ProfileRepository) UpdateFullName(ctx context.Context, userID string, name *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE profiles SET full_name = ? WHERE id = ?`, name, userID)
	return err
}

// DeductPoints decrements the balance only when it covers amount.
func (r *ProfileRepository) DeductPoints(ctx context.Context, userID string, amount int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE profiles SET points = points - ? WHERE id = ? AND points >= ?`,
		amount, userID, amount)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInsufficientPoints
	}
	return nil
}

func (r *ProfileRepository) IncrementPoints(ctx context.Context, userID string, amount int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE profiles SET points = points + ? WHERE id = ?`, amount, userID)
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

func (r *ProfileRepository) SetPoints(ctx context.Context, userID string, points int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE profiles SET points = ? WHERE id = ?`, points, userID)
	return err
}
