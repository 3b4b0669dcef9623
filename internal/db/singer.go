package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mpwalden/crooner/internal/models"
)

// SingerRepository handles database operations for singers and their
// session memberships
type SingerRepository struct {
	db *DB
}

// NewSingerRepository creates a new singer repository
func NewSingerRepository(db *DB) *SingerRepository {
	return &SingerRepository{db: db}
}

// Create inserts a new singer into the database
func (r *SingerRepository) Create(ctx context.Context, singer *models.Singer) error {
	result := r.db.WithContext(ctx).Create(singer)
	if result.Error != nil {
		return fmt.Errorf("failed to create singer: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a singer by its UUID
func (r *SingerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Singer, error) {
	var singer models.Singer
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&singer)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &singer, nil
}

// List retrieves all singers ordered by name
func (r *SingerRepository) List(ctx context.Context) ([]*models.Singer, error) {
	var singers []*models.Singer
	result := r.db.WithContext(ctx).Order("name ASC").Find(&singers)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list singers: %w", MapGormError(result.Error))
	}
	return singers, nil
}

// ListBySession retrieves the singers joined to a session, in join order
func (r *SingerRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*models.Singer, error) {
	var singers []*models.Singer
	result := r.db.WithContext(ctx).
		Joins("JOIN session_singers ON session_singers.singer_id = singers.id").
		Where("session_singers.session_id = ?", sessionID.String()).
		Order("session_singers.position ASC").
		Find(&singers)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list session singers: %w", MapGormError(result.Error))
	}
	return singers, nil
}

// Update updates an existing singer
func (r *SingerRepository) Update(ctx context.Context, singer *models.Singer) error {
	singer.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Where("id = ?", singer.ID.String()).
		Select("name", "unique_name", "color", "is_persistent", "updated_at").
		Updates(singer)
	if result.Error != nil {
		return fmt.Errorf("failed to update singer: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a singer by its UUID (cascade delete to assignments and memberships)
func (r *SingerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.Singer{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete singer: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IsMember reports whether a singer has joined the given session
func (r *SingerRepository) IsMember(ctx context.Context, sessionID, singerID uuid.UUID) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&models.SessionSinger{}).
		Where("session_id = ? AND singer_id = ?", sessionID.String(), singerID.String()).
		Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("failed to check session membership: %w", MapGormError(result.Error))
	}
	return count > 0, nil
}

// Join adds a singer to a session at the next membership position
func (r *SingerRepository) Join(ctx context.Context, sessionID, singerID uuid.UUID) error {
	var maxPos sql.NullInt64
	result := r.db.WithContext(ctx).
		Model(&models.SessionSinger{}).
		Where("session_id = ?", sessionID.String()).
		Select("MAX(position)").
		Scan(&maxPos)
	if result.Error != nil {
		return fmt.Errorf("failed to read membership positions: %w", MapGormError(result.Error))
	}

	next := 0
	if maxPos.Valid {
		next = int(maxPos.Int64) + 1
	}

	member := &models.SessionSinger{
		SessionID: sessionID,
		SingerID:  singerID,
		Position:  next,
		JoinedAt:  time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		return fmt.Errorf("failed to join session: %w", MapGormError(err))
	}
	return nil
}

// Leave removes a singer's membership from a session
func (r *SingerRepository) Leave(ctx context.Context, sessionID, singerID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("session_id = ? AND singer_id = ?", sessionID.String(), singerID.String()).
		Delete(&models.SessionSinger{})
	if result.Error != nil {
		return fmt.Errorf("failed to leave session: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeOrphans deletes non-persistent singers with no session membership.
// Returns the number of singers removed.
func (r *SingerRepository) PurgeOrphans(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("is_persistent = ? AND id NOT IN (SELECT singer_id FROM session_singers)", false).
		Delete(&models.Singer{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge orphaned singers: %w", MapGormError(result.Error))
	}
	return result.RowsAffected, nil
}
