// Package session manages karaoke session lifecycle and the process-wide
// single-active-session invariant, plus the hosted-session ownership
// protocol.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mpwalden/crooner/internal/db"
	"github.com/mpwalden/crooner/internal/logger"
	"github.com/mpwalden/crooner/internal/models"
	"gorm.io/gorm"
)

// Service handles business logic for session operations
type Service struct {
	repos *db.Repositories
	db    *db.DB
}

// NewService creates a new session service instance
func NewService(database *db.DB, repos *db.Repositories) *Service {
	return &Service{
		repos: repos,
		db:    database,
	}
}

// Start creates a new active session. Any previously active session is
// deactivated in the same transaction and its queue and history items are
// migrated forward onto the new session with positions untouched, so a crowd
// that outlives one session keeps its place in the next.
func (s *Service) Start(ctx context.Context, name string) (*models.Session, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 255 {
		logger.Log.Warn().Str("name", name).Msg("Session start failed: invalid name")
		return nil, fmt.Errorf("failed to start session: %w", ErrInvalidName)
	}

	newSession := models.NewSession(name)
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		var prior models.Session
		result := tx.Where("is_active = ?", true).First(&prior)
		hasPrior := result.Error == nil
		if result.Error != nil && !db.IsNotFound(db.MapGormError(result.Error)) {
			return fmt.Errorf("failed to load active session: %w", db.MapGormError(result.Error))
		}

		if err := tx.Create(newSession).Error; err != nil {
			return fmt.Errorf("failed to create session: %w", db.MapGormError(err))
		}

		if hasPrior {
			result = tx.Model(&models.Session{}).
				Where("id = ?", prior.ID.String()).
				Updates(map[string]interface{}{
					"is_active":  false,
					"updated_at": time.Now().UTC(),
				})
			if result.Error != nil {
				return fmt.Errorf("failed to deactivate prior session: %w", db.MapGormError(result.Error))
			}

			// Carry the prior session's items forward; positions stay valid
			// because whole partitions move together.
			result = tx.Model(&models.QueueItem{}).
				Where("session_id = ?", prior.ID.String()).
				Update("session_id", newSession.ID.String())
			if result.Error != nil {
				return fmt.Errorf("failed to migrate items: %w", db.MapGormError(result.Error))
			}

			result = tx.Model(&models.SessionSinger{}).
				Where("session_id = ?", prior.ID.String()).
				Update("session_id", newSession.ID.String())
			if result.Error != nil {
				return fmt.Errorf("failed to migrate singer memberships: %w", db.MapGormError(result.Error))
			}
		}
		return nil
	})
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("name", name).
			Msg("Failed to start session")
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	s.purgeOrphanedSingers(ctx)

	logger.Log.Info().
		Str("session_id", newSession.ID.String()).
		Str("name", name).
		Msg("Session started")

	return newSession, nil
}

// End finishes a session: sessions with queue or history content are archived
// (ended_at stamped, deactivated), empty ones are deleted outright.
func (s *Service) End(ctx context.Context, sessionID uuid.UUID) error {
	if _, err := s.repos.Sessions.GetByID(ctx, sessionID); err != nil {
		if db.IsNotFound(err) {
			return fmt.Errorf("failed to end session: %w", ErrSessionNotFound)
		}
		return fmt.Errorf("failed to end session: %w", err)
	}

	itemCount, err := s.repos.QueueItems.CountBySession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}

	err = s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if itemCount == 0 {
			result := tx.Where("id = ?", sessionID.String()).Delete(&models.Session{})
			if result.Error != nil {
				return fmt.Errorf("failed to delete empty session: %w", db.MapGormError(result.Error))
			}
			if result.RowsAffected == 0 {
				return ErrSessionNotFound
			}
			return nil
		}

		result := tx.Model(&models.Session{}).
			Where("id = ?", sessionID.String()).
			Updates(map[string]interface{}{
				"is_active":  false,
				"ended_at":   time.Now().UTC(),
				"updated_at": time.Now().UTC(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to archive session: %w", db.MapGormError(result.Error))
		}
		if result.RowsAffected == 0 {
			return ErrSessionNotFound
		}
		return nil
	})
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("session_id", sessionID.String()).
			Msg("Failed to end session")
		return fmt.Errorf("failed to end session: %w", err)
	}

	s.purgeOrphanedSingers(ctx)

	logger.Log.Info().
		Str("session_id", sessionID.String()).
		Bool("archived", itemCount > 0).
		Msg("Session ended")

	return nil
}

// Load reactivates an archived session, deactivating any other active session
// in the same transaction so at most one remains active
func (s *Service) Load(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		result := tx.Model(&models.Session{}).
			Where("is_active = ? AND id != ?", true, sessionID.String()).
			Updates(map[string]interface{}{
				"is_active":  false,
				"updated_at": time.Now().UTC(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to deactivate sessions: %w", db.MapGormError(result.Error))
		}

		result = tx.Model(&models.Session{}).
			Where("id = ?", sessionID.String()).
			Updates(map[string]interface{}{
				"is_active":  true,
				"ended_at":   nil,
				"updated_at": time.Now().UTC(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to activate session: %w", db.MapGormError(result.Error))
		}
		if result.RowsAffected == 0 {
			return ErrSessionNotFound
		}
		return nil
	})
	if err != nil {
		if !IsSessionNotFound(err) {
			logger.Log.Error().
				Err(err).
				Str("session_id", sessionID.String()).
				Msg("Failed to load session")
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	session, err := s.repos.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	logger.Log.Info().
		Str("session_id", sessionID.String()).
		Msg("Session loaded as active")

	return session, nil
}

// Active returns the single active session
func (s *Service) Active(ctx context.Context) (*models.Session, error) {
	session, err := s.repos.Sessions.GetActive(ctx)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrNoActiveSession
		}
		return nil, fmt.Errorf("failed to get active session: %w", err)
	}
	return session, nil
}

// GetByID retrieves a session by its ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	session, err := s.repos.Sessions.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// List retrieves all sessions, newest first
func (s *Service) List(ctx context.Context) ([]*models.Session, error) {
	sessions, err := s.repos.Sessions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// SetActiveSinger points the session at one of its joined singers, or clears
// the pointer when singerID is nil
func (s *Service) SetActiveSinger(ctx context.Context, sessionID uuid.UUID, singerID *uuid.UUID) error {
	if _, err := s.GetByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to set active singer: %w", err)
	}

	if singerID != nil {
		member, err := s.repos.Singers.IsMember(ctx, sessionID, *singerID)
		if err != nil {
			return fmt.Errorf("failed to set active singer: %w", err)
		}
		if !member {
			logger.Log.Warn().
				Str("session_id", sessionID.String()).
				Str("singer_id", singerID.String()).
				Msg("Set active singer failed: not a session member")
			return fmt.Errorf("failed to set active singer: %w", ErrSingerNotInSession)
		}
	}

	var value interface{}
	if singerID != nil {
		value = singerID.String()
	}
	result := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ?", sessionID.String()).
		Updates(map[string]interface{}{
			"active_singer_id": value,
			"updated_at":       time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to set active singer: %w", db.MapGormError(result.Error))
	}
	return nil
}

// purgeOrphanedSingers removes non-persistent singers with no remaining
// session membership. Best-effort: a failure here never aborts the operation
// that triggered it.
func (s *Service) purgeOrphanedSingers(ctx context.Context) {
	purged, err := s.repos.Singers.PurgeOrphans(ctx)
	if err != nil {
		logger.Log.Warn().
			Err(err).
			Msg("Orphaned singer purge failed")
		return
	}
	if purged > 0 {
		logger.Log.Debug().
			Int64("purged", purged).
			Msg("Purged orphaned singers")
	}
}
