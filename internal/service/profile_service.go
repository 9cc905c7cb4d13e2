package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"storefront/internal/entity"
	"storefront/internal/repository"
)

const maxNameLength = 100

type ProfileService struct {
	repo ProfileStore
}

func NewProfileService(repo ProfileStore) *ProfileService {
	return &ProfileService{repo: repo}
}

// Get returns the user's profile, creating an empty one on first access.
func (p *ProfileService) Get(ctx context.Context, userID string) (*entity.Profile, error) {
	profile, err := p.repo.GetProfile(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		logger.Error().Err(err).Msgf("Error getting profile %s", userID)
		return nil, err
	}

	if err := p.repo.CreateProfile(ctx, userID); err != nil {
		logger.Error().Err(err).Msgf("Error creating profile %s", userID)
		return nil, err
	}
	return p.repo.GetProfile(ctx, userID)
}

// UpdateName changes the display name only. A blank name clears it.
func (p *ProfileService) UpdateName(ctx context.Context, userID string, name string) (*entity.Profile, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, invalid("Name is too long.")
	}

	if _, err := p.Get(ctx, userID); err != nil {
		return nil, err
	}

	var value *string
	if name != "" {
		value = &name
	}
	if err := p.repo.UpdateFullName(ctx, userID, value); err != nil {
		logger.Error().Err(err).Msgf("Error updating profile %s", userID)
		return nil, err
	}
	return p.repo.GetProfile(ctx, userID)
}
