package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"storefront/internal/auth"
	"storefront/internal/entity"
	"storefront/internal/repository"
)

type AdminService struct {
	repo   AdminStore
	issuer *auth.Issuer
}

func NewAdminService(repo AdminStore, issuer *auth.Issuer) *AdminService {
	return &AdminService{repo: repo, issuer: issuer}
}

// Login checks an admin's credentials and returns a signed admin token.
func (a *AdminService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", ErrInvalidLogin
	}

	admin, err := a.repo.GetAdminByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		logger.Warn().Msgf("Login attempt for unknown admin %s", email)
		return "", ErrInvalidLogin
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting admin %s", email)
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		logger.Warn().Msgf("Wrong password for admin %s", email)
		return "", ErrInvalidLogin
	}
	if admin.Role != auth.RoleAdmin {
		return "", ErrInvalidLogin
	}

	return a.issuer.Issue(strconv.FormatInt(admin.ID, 10), admin.Email, admin.Role)
}

// EnsureAdmin creates the admin account when it does not exist yet. An
// existing account keeps its password.
func (a *AdminService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}
	if password == "" {
		return invalid("ADMIN_PASSWORD is required when ADMIN_EMAIL is set.")
	}

	_, err := a.repo.GetAdminByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if _, err := a.repo.CreateAdmin(ctx, &entity.Admin{Email: email, PasswordHash: string(hash), Role: auth.RoleAdmin}); err != nil {
		return err
	}
	logger.Info().Msgf("Created admin account %s", email)
	return nil
}
