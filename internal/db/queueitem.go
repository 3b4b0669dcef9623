package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mpwalden/crooner/internal/models"
)

// QueueItemRepository handles database operations for queue and history items
type QueueItemRepository struct {
	db *DB
}

// NewQueueItemRepository creates a new queue item repository
func NewQueueItemRepository(db *DB) *QueueItemRepository {
	return &QueueItemRepository{db: db}
}

// Create inserts a new queue item into the database
func (r *QueueItemRepository) Create(ctx context.Context, item *models.QueueItem) error {
	result := r.db.WithContext(ctx).Create(item)
	if result.Error != nil {
		return fmt.Errorf("failed to create queue item: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a queue item by its caller-supplied id
func (r *QueueItemRepository) GetByID(ctx context.Context, id string) (*models.QueueItem, error) {
	var item models.QueueItem
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&item)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &item, nil
}

// ListByPartition retrieves all items of one (session, item_type) partition,
// ordered by position
func (r *QueueItemRepository) ListByPartition(ctx context.Context, sessionID uuid.UUID, itemType string) ([]*models.QueueItem, error) {
	var items []*models.QueueItem
	result := r.db.WithContext(ctx).
		Where("session_id = ? AND item_type = ?", sessionID.String(), itemType).
		Order("position ASC").
		Find(&items)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list queue items: %w", MapGormError(result.Error))
	}
	return items, nil
}

// CountByPartition counts the items in one (session, item_type) partition
func (r *QueueItemRepository) CountByPartition(ctx context.Context, sessionID uuid.UUID, itemType string) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&models.QueueItem{}).
		Where("session_id = ? AND item_type = ?", sessionID.String(), itemType).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count queue items: %w", MapGormError(result.Error))
	}
	return count, nil
}

// CountBySession counts all items belonging to a session across both partitions
func (r *QueueItemRepository) CountBySession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&models.QueueItem{}).
		Where("session_id = ?", sessionID.String()).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count session items: %w", MapGormError(result.Error))
	}
	return count, nil
}

// Assignments retrieves the singer ids assigned to each of the given items,
// in assignment position order
func (r *QueueItemRepository) Assignments(ctx context.Context, itemIDs []string) (map[string][]uuid.UUID, error) {
	assignments := make(map[string][]uuid.UUID, len(itemIDs))
	if len(itemIDs) == 0 {
		return assignments, nil
	}

	var rows []*models.QueueItemSinger
	result := r.db.WithContext(ctx).
		Where("queue_item_id IN ?", itemIDs).
		Order("queue_item_id ASC, position ASC").
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load singer assignments: %w", MapGormError(result.Error))
	}

	for _, row := range rows {
		assignments[row.QueueItemID] = append(assignments[row.QueueItemID], row.SingerID)
	}
	return assignments, nil
}

// SingersForItems retrieves the singer rows assigned to each of the given
// items, in assignment position order
func (r *QueueItemRepository) SingersForItems(ctx context.Context, itemIDs []string) (map[string][]*models.Singer, error) {
	singers := make(map[string][]*models.Singer, len(itemIDs))
	if len(itemIDs) == 0 {
		return singers, nil
	}

	type assignedSinger struct {
		models.Singer
		QueueItemID string `gorm:"column:queue_item_id"`
	}

	var rows []*assignedSinger
	result := r.db.WithContext(ctx).
		Model(&models.Singer{}).
		Select("singers.*, queue_item_singers.queue_item_id").
		Joins("JOIN queue_item_singers ON queue_item_singers.singer_id = singers.id").
		Where("queue_item_singers.queue_item_id IN ?", itemIDs).
		Order("queue_item_singers.queue_item_id ASC, queue_item_singers.position ASC").
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load item singers: %w", MapGormError(result.Error))
	}

	for _, row := range rows {
		s := row.Singer
		singers[row.QueueItemID] = append(singers[row.QueueItemID], &s)
	}
	return singers, nil
}
