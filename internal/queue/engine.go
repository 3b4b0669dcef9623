// Package queue implements the ordering engine for session queue and history
// items. Every multi-step position mutation runs inside a single transaction
// so positions stay dense (exactly 0..n-1 per partition) or roll back whole.
package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mpwalden/crooner/internal/db"
	"github.com/mpwalden/crooner/internal/logger"
	"github.com/mpwalden/crooner/internal/models"
	"gorm.io/gorm"
)

// Engine mutates the ordered queue/history partitions of a session
type Engine struct {
	repos *db.Repositories
	db    *db.DB
}

// NewEngine creates a new queue ordering engine
func NewEngine(database *db.DB, repos *db.Repositories) *Engine {
	return &Engine{
		repos: repos,
		db:    database,
	}
}

// NewItem describes an entry to append; the ID is caller-supplied and opaque
type NewItem struct {
	ID              string
	VideoID         string
	Title           string
	Artist          string
	DurationSeconds int64
	ThumbnailURL    string
}

// Snapshot is a point-in-time read of both partitions of a session
type Snapshot struct {
	Queue        []*models.QueueItem
	History      []*models.QueueItem
	HistoryIndex int
}

// renumberPartition rewrites the positions of one (session, item_type)
// partition to a dense 0..n-1 sequence. Ties on position are broken by rowid,
// the store's stable insertion order.
func renumberPartition(tx *gorm.DB, sessionID uuid.UUID, itemType string) error {
	result := tx.Exec(`
		UPDATE queue_items
		SET position = numbered.new_pos
		FROM (
			SELECT id, ROW_NUMBER() OVER (ORDER BY position, rowid) - 1 AS new_pos
			FROM queue_items
			WHERE session_id = ? AND item_type = ?
		) AS numbered
		WHERE queue_items.id = numbered.id
	`, sessionID.String(), itemType)
	if result.Error != nil {
		return fmt.Errorf("failed to renumber positions: %w", db.MapGormError(result.Error))
	}
	return nil
}

// activeSession fetches the session and verifies it is the active one
func (e *Engine) activeSession(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	session, err := e.repos.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !session.IsActive {
		return nil, ErrNoActiveSession
	}
	return session, nil
}

// Append inserts an item at the tail of the queue partition and records its
// singer assignments in the given order
func (e *Engine) Append(ctx context.Context, sessionID uuid.UUID, item NewItem, singerIDs []uuid.UUID) (*models.QueueItem, error) {
	return e.appendItem(ctx, sessionID, models.ItemTypeQueue, item, singerIDs, nil)
}

// AddDirectToHistory inserts an item at the tail of the history partition with
// played_at stamped, bypassing the queue entirely
func (e *Engine) AddDirectToHistory(ctx context.Context, sessionID uuid.UUID, item NewItem, singerIDs []uuid.UUID) (*models.QueueItem, error) {
	now := time.Now().UTC()
	return e.appendItem(ctx, sessionID, models.ItemTypeHistory, item, singerIDs, &now)
}

func (e *Engine) appendItem(ctx context.Context, sessionID uuid.UUID, itemType string, item NewItem, singerIDs []uuid.UUID, playedAt *time.Time) (*models.QueueItem, error) {
	if _, err := e.activeSession(ctx, sessionID); err != nil {
		logger.Log.Warn().
			Str("session_id", sessionID.String()).
			Str("item_id", item.ID).
			Msg("Append failed: session check")
		return nil, fmt.Errorf("failed to append item: %w", err)
	}

	var newItem *models.QueueItem
	err := e.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		var maxPos sql.NullInt64
		result := tx.Model(&models.QueueItem{}).
			Where("session_id = ? AND item_type = ?", sessionID.String(), itemType).
			Select("MAX(position)").
			Scan(&maxPos)
		if result.Error != nil {
			return fmt.Errorf("failed to read tail position: %w", db.MapGormError(result.Error))
		}

		position := 0
		if maxPos.Valid {
			position = int(maxPos.Int64) + 1
		}

		newItem = &models.QueueItem{
			ID:              item.ID,
			SessionID:       sessionID,
			ItemType:        itemType,
			VideoID:         item.VideoID,
			Title:           item.Title,
			Artist:          item.Artist,
			DurationSeconds: item.DurationSeconds,
			ThumbnailURL:    item.ThumbnailURL,
			Position:        position,
			AddedAt:         time.Now().UTC(),
			PlayedAt:        playedAt,
		}
		if err := tx.Create(newItem).Error; err != nil {
			mapped := db.MapGormError(err)
			if errors.Is(mapped, db.ErrDuplicate) {
				return ErrDuplicateItem
			}
			return fmt.Errorf("failed to create item: %w", mapped)
		}

		for i, singerID := range singerIDs {
			assignment := &models.QueueItemSinger{
				QueueItemID: newItem.ID,
				SingerID:    singerID,
				Position:    i,
			}
			if err := tx.Create(assignment).Error; err != nil {
				return fmt.Errorf("failed to assign singer %s: %w", singerID, db.MapGormError(err))
			}
		}
		return nil
	})
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("session_id", sessionID.String()).
			Str("item_id", item.ID).
			Str("item_type", itemType).
			Msg("Failed to append item")
		return nil, fmt.Errorf("failed to append item: %w", err)
	}

	logger.Log.Info().
		Str("session_id", sessionID.String()).
		Str("item_id", newItem.ID).
		Str("item_type", itemType).
		Int("position", newItem.Position).
		Msg("Item appended")

	return newItem, nil
}

// fetchItem loads an item scoped to a session inside a transaction
func fetchItem(tx *gorm.DB, sessionID uuid.UUID, itemID string) (*models.QueueItem, error) {
	var item models.QueueItem
	result := tx.Where("id = ? AND session_id = ?", itemID, sessionID.String()).First(&item)
	if result.Error != nil {
		if db.IsNotFound(db.MapGormError(result.Error)) {
			return nil, ErrItemNotFound
		}
		return nil, db.MapGormError(result.Error)
	}
	return &item, nil
}

// Remove deletes an item and renumbers the remaining items of its partition
// so positions stay dense. All-or-nothing.
func (e *Engine) Remove(ctx context.Context, sessionID uuid.UUID, itemID string) error {
	err := e.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		item, err := fetchItem(tx, sessionID, itemID)
		if err != nil {
			return err
		}

		result := tx.Where("id = ?", itemID).Delete(&models.QueueItem{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete item: %w", db.MapGormError(result.Error))
		}
		if result.RowsAffected == 0 {
			return ErrItemNotFound
		}

		return renumberPartition(tx, sessionID, item.ItemType)
	})
	if err != nil {
		if !errors.Is(err, ErrItemNotFound) {
			logger.Log.Error().
				Err(err).
				Str("session_id", sessionID.String()).
				Str("item_id", itemID).
				Msg("Failed to remove item")
		}
		return fmt.Errorf("failed to remove item: %w", err)
	}

	logger.Log.Info().
		Str("session_id", sessionID.String()).
		Str("item_id", itemID).
		Msg("Item removed")

	return nil
}

// Move places an item at newPos within its partition, shifting the items in
// between by one. Rejects positions outside [0, max] before touching storage.
func (e *Engine) Move(ctx context.Context, sessionID uuid.UUID, itemID string, newPos int) error {
	if newPos < 0 {
		return fmt.Errorf("failed to move item: %w", ErrInvalidPosition)
	}

	err := e.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		item, err := fetchItem(tx, sessionID, itemID)
		if err != nil {
			return err
		}

		var count int64
		result := tx.Model(&models.QueueItem{}).
			Where("session_id = ? AND item_type = ?", sessionID.String(), item.ItemType).
			Count(&count)
		if result.Error != nil {
			return fmt.Errorf("failed to count partition: %w", db.MapGormError(result.Error))
		}
		if newPos > int(count)-1 {
			return ErrInvalidPosition
		}

		oldPos := item.Position
		if newPos == oldPos {
			return nil
		}

		// Shift the displaced range toward the vacated slot, then drop the
		// moved item into place.
		if newPos < oldPos {
			result = tx.Model(&models.QueueItem{}).
				Where("session_id = ? AND item_type = ? AND position >= ? AND position < ?",
					sessionID.String(), item.ItemType, newPos, oldPos).
				Update("position", gorm.Expr("position + 1"))
		} else {
			result = tx.Model(&models.QueueItem{}).
				Where("session_id = ? AND item_type = ? AND position > ? AND position <= ?",
					sessionID.String(), item.ItemType, oldPos, newPos).
				Update("position", gorm.Expr("position - 1"))
		}
		if result.Error != nil {
			return fmt.Errorf("failed to shift positions: %w", db.MapGormError(result.Error))
		}

		result = tx.Model(&models.QueueItem{}).
			Where("id = ?", itemID).
			Update("position", newPos)
		if result.Error != nil {
			return fmt.Errorf("failed to place item: %w", db.MapGormError(result.Error))
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrItemNotFound) && !errors.Is(err, ErrInvalidPosition) {
			logger.Log.Error().
				Err(err).
				Str("session_id", sessionID.String()).
				Str("item_id", itemID).
				Int("new_position", newPos).
				Msg("Failed to move item")
		}
		return fmt.Errorf("failed to move item: %w", err)
	}

	logger.Log.Info().
		Str("session_id", sessionID.String()).
		Str("item_id", itemID).
		Int("new_position", newPos).
		Msg("Item moved")

	return nil
}

// PromoteToHistory reclassifies a queue item into the history partition at its
// tail, stamps played_at, and closes the gap left in the queue
func (e *Engine) PromoteToHistory(ctx context.Context, sessionID uuid.UUID, itemID string) error {
	err := e.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		item, err := fetchItem(tx, sessionID, itemID)
		if err != nil {
			return err
		}
		if item.ItemType != models.ItemTypeQueue {
			return ErrItemNotFound
		}

		var maxPos sql.NullInt64
		result := tx.Model(&models.QueueItem{}).
			Where("session_id = ? AND item_type = ?", sessionID.String(), models.ItemTypeHistory).
			Select("MAX(position)").
			Scan(&maxPos)
		if result.Error != nil {
			return fmt.Errorf("failed to read history tail: %w", db.MapGormError(result.Error))
		}

		histPos := 0
		if maxPos.Valid {
			histPos = int(maxPos.Int64) + 1
		}

		result = tx.Model(&models.QueueItem{}).
			Where("id = ?", itemID).
			Updates(map[string]interface{}{
				"item_type": models.ItemTypeHistory,
				"position":  histPos,
				"played_at": time.Now().UTC(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to promote item: %w", db.MapGormError(result.Error))
		}

		return renumberPartition(tx, sessionID, models.ItemTypeQueue)
	})
	if err != nil {
		if !errors.Is(err, ErrItemNotFound) {
			logger.Log.Error().
				Err(err).
				Str("session_id", sessionID.String()).
				Str("item_id", itemID).
				Msg("Failed to promote item to history")
		}
		return fmt.Errorf("failed to promote item: %w", err)
	}

	logger.Log.Info().
		Str("session_id", sessionID.String()).
		Str("item_id", itemID).
		Msg("Item promoted to history")

	return nil
}

// DemoteAllHistoryToQueue moves every history item back into the queue
// partition, appended after the current queue tail in their relative history
// order, clears played_at, and resets the history cursor. Single pass.
func (e *Engine) DemoteAllHistoryToQueue(ctx context.Context, sessionID uuid.UUID) error {
	if _, err := e.repos.Sessions.GetByID(ctx, sessionID); err != nil {
		if db.IsNotFound(err) {
			return fmt.Errorf("failed to requeue history: %w", ErrSessionNotFound)
		}
		return fmt.Errorf("failed to requeue history: %w", err)
	}

	err := e.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		var queueCount int64
		result := tx.Model(&models.QueueItem{}).
			Where("session_id = ? AND item_type = ?", sessionID.String(), models.ItemTypeQueue).
			Count(&queueCount)
		if result.Error != nil {
			return fmt.Errorf("failed to count queue: %w", db.MapGormError(result.Error))
		}

		// The i-th smallest history position lands at queue_count + i.
		result = tx.Exec(`
			UPDATE queue_items
			SET item_type = ?, played_at = NULL, position = numbered.new_pos
			FROM (
				SELECT id, ? + ROW_NUMBER() OVER (ORDER BY position, rowid) - 1 AS new_pos
				FROM queue_items
				WHERE session_id = ? AND item_type = ?
			) AS numbered
			WHERE queue_items.id = numbered.id
		`, models.ItemTypeQueue, queueCount, sessionID.String(), models.ItemTypeHistory)
		if result.Error != nil {
			return fmt.Errorf("failed to requeue history items: %w", db.MapGormError(result.Error))
		}

		result = tx.Model(&models.Session{}).
			Where("id = ?", sessionID.String()).
			Update("history_index", -1)
		if result.Error != nil {
			return fmt.Errorf("failed to reset history cursor: %w", db.MapGormError(result.Error))
		}
		return nil
	})
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("session_id", sessionID.String()).
			Msg("Failed to requeue history")
		return fmt.Errorf("failed to requeue history: %w", err)
	}

	logger.Log.Info().
		Str("session_id", sessionID.String()).
		Msg("History requeued")

	return nil
}

// Clear deletes every item of one partition. Clearing history also resets the
// history cursor.
func (e *Engine) Clear(ctx context.Context, sessionID uuid.UUID, itemType string) error {
	if !models.IsValidItemType(itemType) {
		return fmt.Errorf("failed to clear partition: %w", ErrInvalidItemType)
	}
	if _, err := e.repos.Sessions.GetByID(ctx, sessionID); err != nil {
		if db.IsNotFound(err) {
			return fmt.Errorf("failed to clear partition: %w", ErrSessionNotFound)
		}
		return fmt.Errorf("failed to clear partition: %w", err)
	}

	err := e.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		result := tx.Where("session_id = ? AND item_type = ?", sessionID.String(), itemType).
			Delete(&models.QueueItem{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete partition: %w", db.MapGormError(result.Error))
		}

		if itemType == models.ItemTypeHistory {
			result = tx.Model(&models.Session{}).
				Where("id = ?", sessionID.String()).
				Update("history_index", -1)
			if result.Error != nil {
				return fmt.Errorf("failed to reset history cursor: %w", db.MapGormError(result.Error))
			}
		}
		return nil
	})
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("session_id", sessionID.String()).
			Str("item_type", itemType).
			Msg("Failed to clear partition")
		return fmt.Errorf("failed to clear partition: %w", err)
	}

	logger.Log.Info().
		Str("session_id", sessionID.String()).
		Str("item_type", itemType).
		Msg("Partition cleared")

	return nil
}

// SetHistoryCursor moves the session's playback cursor within the history
// partition; -1 means no history position is current
func (e *Engine) SetHistoryCursor(ctx context.Context, sessionID uuid.UUID, index int) error {
	if _, err := e.repos.Sessions.GetByID(ctx, sessionID); err != nil {
		if db.IsNotFound(err) {
			return fmt.Errorf("failed to set history cursor: %w", ErrSessionNotFound)
		}
		return fmt.Errorf("failed to set history cursor: %w", err)
	}

	count, err := e.repos.QueueItems.CountByPartition(ctx, sessionID, models.ItemTypeHistory)
	if err != nil {
		return fmt.Errorf("failed to set history cursor: %w", err)
	}
	if index < -1 || index >= int(count) {
		return fmt.Errorf("failed to set history cursor: %w", ErrInvalidCursor)
	}

	result := e.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ?", sessionID.String()).
		Update("history_index", index)
	if result.Error != nil {
		return fmt.Errorf("failed to set history cursor: %w", db.MapGormError(result.Error))
	}
	return nil
}

// GetSnapshot reads both partitions of a session, with singer assignments
// attached, ordered by position
func (e *Engine) GetSnapshot(ctx context.Context, sessionID uuid.UUID) (*Snapshot, error) {
	session, err := e.repos.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, fmt.Errorf("failed to get snapshot: %w", ErrSessionNotFound)
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	queueItems, err := e.repos.QueueItems.ListByPartition(ctx, sessionID, models.ItemTypeQueue)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	historyItems, err := e.repos.QueueItems.ListByPartition(ctx, sessionID, models.ItemTypeHistory)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	itemIDs := make([]string, 0, len(queueItems)+len(historyItems))
	for _, item := range queueItems {
		itemIDs = append(itemIDs, item.ID)
	}
	for _, item := range historyItems {
		itemIDs = append(itemIDs, item.ID)
	}

	singers, err := e.repos.QueueItems.SingersForItems(ctx, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	for _, item := range queueItems {
		item.Singers = singers[item.ID]
	}
	for _, item := range historyItems {
		item.Singers = singers[item.ID]
	}

	return &Snapshot{
		Queue:        queueItems,
		History:      historyItems,
		HistoryIndex: session.HistoryIndex,
	}, nil
}

// FairShuffle recomputes the queue partition order with the fairness
// scheduler and writes the new positions back in one transaction. History is
// untouched.
func (e *Engine) FairShuffle(ctx context.Context, sessionID uuid.UUID) error {
	if _, err := e.activeSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to shuffle queue: %w", err)
	}

	items, err := e.repos.QueueItems.ListByPartition(ctx, sessionID, models.ItemTypeQueue)
	if err != nil {
		return fmt.Errorf("failed to shuffle queue: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	itemIDs := make([]string, len(items))
	for i, item := range items {
		itemIDs[i] = item.ID
	}
	assignments, err := e.repos.QueueItems.Assignments(ctx, itemIDs)
	if err != nil {
		return fmt.Errorf("failed to shuffle queue: %w", err)
	}

	shuffleItems := make([]ShuffleItem, len(items))
	for i, item := range items {
		singerKeys := make([]string, 0, len(assignments[item.ID]))
		for _, singerID := range assignments[item.ID] {
			singerKeys = append(singerKeys, singerID.String())
		}
		shuffleItems[i] = ShuffleItem{ID: item.ID, Singers: singerKeys}
	}

	order := FairOrder(shuffleItems)

	err = e.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		for pos, id := range order {
			result := tx.Model(&models.QueueItem{}).
				Where("id = ? AND session_id = ?", id, sessionID.String()).
				Update("position", pos)
			if result.Error != nil {
				return fmt.Errorf("failed to write position for item %s: %w", id, db.MapGormError(result.Error))
			}
			if result.RowsAffected == 0 {
				return ErrItemNotFound
			}
		}
		return nil
	})
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("session_id", sessionID.String()).
			Msg("Failed to shuffle queue")
		return fmt.Errorf("failed to shuffle queue: %w", err)
	}

	logger.Log.Info().
		Str("session_id", sessionID.String()).
		Int("item_count", len(order)).
		Msg("Queue shuffled")

	return nil
}
