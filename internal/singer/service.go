// Package singer handles singer records and their session memberships.
package singer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mpwalden/crooner/internal/db"
	"github.com/mpwalden/crooner/internal/logger"
	"github.com/mpwalden/crooner/internal/models"
)

// Service handles business logic for singer operations
type Service struct {
	repos *db.Repositories
}

// NewService creates a new singer service instance
func NewService(repos *db.Repositories) *Service {
	return &Service{repos: repos}
}

// validateName trims and checks a singer display or unique name
func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > models.MaxSingerNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}

// Create validates and stores a new singer
func (s *Service) Create(ctx context.Context, name string, uniqueName *string, color string, persistent bool) (*models.Singer, error) {
	name, err := validateName(name)
	if err != nil {
		logger.Log.Warn().Str("name", name).Msg("Singer creation failed: invalid name")
		return nil, fmt.Errorf("failed to create singer: %w", err)
	}

	singer := models.NewSinger(name, color, persistent)
	if uniqueName != nil {
		trimmed, err := validateName(*uniqueName)
		if err != nil {
			return nil, fmt.Errorf("failed to create singer: %w", err)
		}
		singer.UniqueName = &trimmed
	}

	if err := s.repos.Singers.Create(ctx, singer); err != nil {
		logger.Log.Error().
			Err(err).
			Str("name", name).
			Msg("Failed to create singer")
		return nil, fmt.Errorf("failed to create singer: %w", err)
	}

	logger.Log.Info().
		Str("singer_id", singer.ID.String()).
		Str("name", name).
		Msg("Singer created")

	return singer, nil
}

// Update applies partial changes to a singer
func (s *Service) Update(ctx context.Context, id uuid.UUID, name *string, uniqueName *string, color *string, persistent *bool) (*models.Singer, error) {
	singer, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update singer: %w", err)
	}

	if name != nil {
		trimmed, err := validateName(*name)
		if err != nil {
			return nil, fmt.Errorf("failed to update singer: %w", err)
		}
		singer.Name = trimmed
	}
	if uniqueName != nil {
		trimmed, err := validateName(*uniqueName)
		if err != nil {
			return nil, fmt.Errorf("failed to update singer: %w", err)
		}
		singer.UniqueName = &trimmed
	}
	if color != nil {
		singer.Color = *color
	}
	if persistent != nil {
		singer.IsPersistent = *persistent
	}

	if err := s.repos.Singers.Update(ctx, singer); err != nil {
		logger.Log.Error().
			Err(err).
			Str("singer_id", id.String()).
			Msg("Failed to update singer")
		return nil, fmt.Errorf("failed to update singer: %w", err)
	}
	return singer, nil
}

// GetByID retrieves a singer by its ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Singer, error) {
	singer, err := s.repos.Singers.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrSingerNotFound
		}
		return nil, fmt.Errorf("failed to get singer: %w", err)
	}
	return singer, nil
}

// List retrieves all singers
func (s *Service) List(ctx context.Context) ([]*models.Singer, error) {
	singers, err := s.repos.Singers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list singers: %w", err)
	}
	return singers, nil
}

// ListBySession retrieves the singers joined to a session, in join order
func (s *Service) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*models.Singer, error) {
	singers, err := s.repos.Singers.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session singers: %w", err)
	}
	return singers, nil
}

// Join adds a singer to a session's membership
func (s *Service) Join(ctx context.Context, sessionID, singerID uuid.UUID) error {
	if _, err := s.repos.Sessions.GetByID(ctx, sessionID); err != nil {
		if db.IsNotFound(err) {
			return fmt.Errorf("failed to join session: %w", ErrSessionNotFound)
		}
		return fmt.Errorf("failed to join session: %w", err)
	}
	if _, err := s.GetByID(ctx, singerID); err != nil {
		return fmt.Errorf("failed to join session: %w", err)
	}

	if err := s.repos.Singers.Join(ctx, sessionID, singerID); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return fmt.Errorf("failed to join session: %w", ErrAlreadyJoined)
		}
		logger.Log.Error().
			Err(err).
			Str("session_id", sessionID.String()).
			Str("singer_id", singerID.String()).
			Msg("Failed to join session")
		return fmt.Errorf("failed to join session: %w", err)
	}

	logger.Log.Info().
		Str("session_id", sessionID.String()).
		Str("singer_id", singerID.String()).
		Msg("Singer joined session")

	return nil
}

// Leave removes a singer from a session's membership. If the singer was the
// session's active singer, the pointer is cleared first.
func (s *Service) Leave(ctx context.Context, sessionID, singerID uuid.UUID) error {
	sess, err := s.repos.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		if db.IsNotFound(err) {
			return fmt.Errorf("failed to leave session: %w", ErrSessionNotFound)
		}
		return fmt.Errorf("failed to leave session: %w", err)
	}

	if sess.ActiveSingerID != nil && *sess.ActiveSingerID == singerID {
		sess.ActiveSingerID = nil
		if err := s.repos.Sessions.Update(ctx, sess); err != nil {
			return fmt.Errorf("failed to leave session: %w", err)
		}
	}

	if err := s.repos.Singers.Leave(ctx, sessionID, singerID); err != nil {
		if db.IsNotFound(err) {
			return fmt.Errorf("failed to leave session: %w", ErrNotJoined)
		}
		return fmt.Errorf("failed to leave session: %w", err)
	}

	logger.Log.Info().
		Str("session_id", sessionID.String()).
		Str("singer_id", singerID.String()).
		Msg("Singer left session")

	return nil
}

// PurgeOrphans deletes non-persistent singers with no session membership
func (s *Service) PurgeOrphans(ctx context.Context) (int64, error) {
	purged, err := s.repos.Singers.PurgeOrphans(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to purge singers: %w", err)
	}
	return purged, nil
}
