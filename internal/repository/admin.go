package repository

import (
	"context"
	"database/sql"
	"errors"

	"storefront/internal/entity"
)

type AdminRepository struct {
	db *sql.DB
}

func NewAdminRepository(db *sql.DB) *AdminRepository {
	return &AdminRepository{db}
}

func (r *AdminRepository) GetAdminByEmail(ctx context.Context, email string) (*entity.Admin, error) {
	a := &entity.Admin{}
	err := r.db.QueryRowContext(ctx, `SELECT id, email, password_hash, role FROM admins WHERE email = ?`, email).
		Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *AdminRepository) CreateAdmin(ctx context.Context, admin *entity.Admin) (*entity.Admin, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO admins (email, password_hash, role) VALUES (?, ?, ?)`,
		admin.Email, admin.PasswordHash, admin.Role)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	admin.ID = id
	return admin, nil
}
