// Package db provides database connection management and repository interfaces.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mpwalden/crooner/internal/models"
)

// SessionRepository handles database operations for sessions
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session into the database
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	result := r.db.WithContext(ctx).Create(session)
	if result.Error != nil {
		return fmt.Errorf("failed to create session: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a session by its UUID
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var session models.Session
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&session)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &session, nil
}

// GetActive retrieves the single active session, if any
func (r *SessionRepository) GetActive(ctx context.Context) (*models.Session, error) {
	var session models.Session
	result := r.db.WithContext(ctx).Where("is_active = ?", true).First(&session)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &session, nil
}

// List retrieves all sessions ordered by start date (newest first)
func (r *SessionRepository) List(ctx context.Context) ([]*models.Session, error) {
	var sessions []*models.Session
	result := r.db.WithContext(ctx).Order("started_at DESC").Find(&sessions)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", MapGormError(result.Error))
	}
	return sessions, nil
}

// Update updates an existing session
func (r *SessionRepository) Update(ctx context.Context, session *models.Session) error {
	session.UpdatedAt = time.Now().UTC()

	// Use Select to explicitly update all fields including zero values
	result := r.db.WithContext(ctx).
		Where("id = ?", session.ID.String()).
		Select("name", "started_at", "ended_at", "is_active", "history_index",
			"active_singer_id", "hosted_session_id", "hosted_by_user_id",
			"hosted_session_status", "updated_at").
		Updates(session)
	if result.Error != nil {
		return fmt.Errorf("failed to update session: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a session by its UUID (cascade delete to queue items)
func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.Session{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete session: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
