package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mpwalden/crooner/internal/logger"
	"github.com/mpwalden/crooner/internal/models"
	"github.com/mpwalden/crooner/internal/queue"
)

// Queue DTOs

// AppendItemRequest represents a request to append an item to the queue or
// directly into history. The item id is minted by the client.
type AppendItemRequest struct {
	ID              string   `json:"id" binding:"required"`
	VideoID         string   `json:"video_id" binding:"required"`
	Title           string   `json:"title" binding:"required"`
	Artist          string   `json:"artist"`
	DurationSeconds int64    `json:"duration_seconds" binding:"gte=0"`
	ThumbnailURL    string   `json:"thumbnail_url"`
	SingerIDs       []string `json:"singer_ids"`
}

// MoveItemRequest represents a request to move an item to a new position
type MoveItemRequest struct {
	Position int `json:"position"`
}

// SetHistoryCursorRequest represents a history cursor update; -1 clears it
type SetHistoryCursorRequest struct {
	Index *int `json:"index" binding:"required"`
}

// QueueItemResponse represents a queue or history item in API responses
type QueueItemResponse struct {
	ID              string            `json:"id"`
	SessionID       string            `json:"session_id"`
	ItemType        string            `json:"item_type"`
	VideoID         string            `json:"video_id"`
	Title           string            `json:"title"`
	Artist          string            `json:"artist"`
	DurationSeconds int64             `json:"duration_seconds"`
	ThumbnailURL    string            `json:"thumbnail_url"`
	Position        int               `json:"position"`
	AddedAt         time.Time         `json:"added_at"`
	PlayedAt        *time.Time        `json:"played_at,omitempty"`
	Singers         []*SingerResponse `json:"singers"`
}

// SnapshotResponse represents both partitions of a session
type SnapshotResponse struct {
	Queue        []*QueueItemResponse `json:"queue"`
	History      []*QueueItemResponse `json:"history"`
	HistoryIndex int                  `json:"history_index"`
}

// QueueHandler handles queue and history API requests
type QueueHandler struct {
	engine *queue.Engine
}

// NewQueueHandler creates a new queue handler instance
func NewQueueHandler(engine *queue.Engine) *QueueHandler {
	return &QueueHandler{engine: engine}
}

// toQueueItemResponse converts a queue item model to API response format
func toQueueItemResponse(item *models.QueueItem) *QueueItemResponse {
	singers := make([]*SingerResponse, len(item.Singers))
	for i, s := range item.Singers {
		singers[i] = toSingerResponse(s)
	}
	return &QueueItemResponse{
		ID:              item.ID,
		SessionID:       item.SessionID.String(),
		ItemType:        item.ItemType,
		VideoID:         item.VideoID,
		Title:           item.Title,
		Artist:          item.Artist,
		DurationSeconds: item.DurationSeconds,
		ThumbnailURL:    item.ThumbnailURL,
		Position:        item.Position,
		AddedAt:         item.AddedAt,
		PlayedAt:        item.PlayedAt,
		Singers:         singers,
	}
}

// parseSingerIDs validates the singer id strings of an append request
func parseSingerIDs(c *gin.Context, raw []string) ([]uuid.UUID, bool) {
	ids := make([]uuid.UUID, len(raw))
	for i, s := range raw {
		parsed, err := uuid.Parse(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_id",
				Message: "Invalid singer ID format: " + s,
			})
			return nil, false
		}
		ids[i] = parsed
	}
	return ids, true
}

// handleEngineError maps common engine errors onto HTTP responses; returns
// false when the error was not one of the known kinds
func handleEngineError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, queue.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Session not found",
		})
	case errors.Is(err, queue.ErrItemNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Queue item not found",
		})
	case errors.Is(err, queue.ErrNoActiveSession):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "no_active_session",
			Message: "Session is not active",
		})
	case errors.Is(err, queue.ErrInvalidPosition):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_position",
			Message: "Position is out of range",
		})
	case errors.Is(err, queue.ErrInvalidCursor):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_cursor",
			Message: "History cursor is out of range",
		})
	case errors.Is(err, queue.ErrDuplicateItem):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "duplicate_item",
			Message: "An item with this id already exists",
		})
	default:
		return false
	}
	return true
}

// GetSnapshot handles GET /api/sessions/:id/items
func (h *QueueHandler) GetSnapshot(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	snapshot, err := h.engine.GetSnapshot(ctx, id)
	if err != nil {
		if !handleEngineError(c, err) {
			logger.Log.Error().Err(err).Str("session_id", id.String()).Msg("Failed to get snapshot")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "query_failed",
				Message: "Failed to retrieve queue snapshot",
			})
		}
		return
	}

	resp := SnapshotResponse{
		Queue:        make([]*QueueItemResponse, len(snapshot.Queue)),
		History:      make([]*QueueItemResponse, len(snapshot.History)),
		HistoryIndex: snapshot.HistoryIndex,
	}
	for i, item := range snapshot.Queue {
		resp.Queue[i] = toQueueItemResponse(item)
	}
	for i, item := range snapshot.History {
		resp.History[i] = toQueueItemResponse(item)
	}
	c.JSON(http.StatusOK, resp)
}

// AppendQueueItem handles POST /api/sessions/:id/queue
func (h *QueueHandler) AppendQueueItem(c *gin.Context) {
	h.appendItem(c, false)
}

// AddDirectToHistory handles POST /api/sessions/:id/history
func (h *QueueHandler) AddDirectToHistory(c *gin.Context) {
	h.appendItem(c, true)
}

func (h *QueueHandler) appendItem(c *gin.Context, toHistory bool) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	var req AppendItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	singerIDs, ok := parseSingerIDs(c, req.SingerIDs)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	item := queue.NewItem{
		ID:              req.ID,
		VideoID:         req.VideoID,
		Title:           req.Title,
		Artist:          req.Artist,
		DurationSeconds: req.DurationSeconds,
		ThumbnailURL:    req.ThumbnailURL,
	}

	var created *models.QueueItem
	var err error
	if toHistory {
		created, err = h.engine.AddDirectToHistory(ctx, id, item, singerIDs)
	} else {
		created, err = h.engine.Append(ctx, id, item, singerIDs)
	}
	if err != nil {
		if !handleEngineError(c, err) {
			logger.Log.Error().Err(err).Str("session_id", id.String()).Msg("Failed to append item")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "append_failed",
				Message: "Failed to append item",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, toQueueItemResponse(created))
}

// RemoveQueueItem handles DELETE /api/sessions/:id/queue/:item_id
func (h *QueueHandler) RemoveQueueItem(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	itemID := c.Param("item_id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.engine.Remove(ctx, id, itemID); err != nil {
		if !handleEngineError(c, err) {
			logger.Log.Error().Err(err).Str("session_id", id.String()).Str("item_id", itemID).Msg("Failed to remove item")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "remove_failed",
				Message: "Failed to remove item",
			})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// MoveQueueItem handles PUT /api/sessions/:id/queue/:item_id/position
func (h *QueueHandler) MoveQueueItem(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	itemID := c.Param("item_id")

	var req MoveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.engine.Move(ctx, id, itemID, req.Position); err != nil {
		if !handleEngineError(c, err) {
			logger.Log.Error().Err(err).Str("session_id", id.String()).Str("item_id", itemID).Msg("Failed to move item")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "move_failed",
				Message: "Failed to move item",
			})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// PromoteToHistory handles POST /api/sessions/:id/queue/:item_id/play
func (h *QueueHandler) PromoteToHistory(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	itemID := c.Param("item_id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.engine.PromoteToHistory(ctx, id, itemID); err != nil {
		if !handleEngineError(c, err) {
			logger.Log.Error().Err(err).Str("session_id", id.String()).Str("item_id", itemID).Msg("Failed to promote item")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "promote_failed",
				Message: "Failed to promote item to history",
			})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// RequeueHistory handles POST /api/sessions/:id/history/requeue
func (h *QueueHandler) RequeueHistory(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.engine.DemoteAllHistoryToQueue(ctx, id); err != nil {
		if !handleEngineError(c, err) {
			logger.Log.Error().Err(err).Str("session_id", id.String()).Msg("Failed to requeue history")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "requeue_failed",
				Message: "Failed to requeue history",
			})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// ClearQueue handles DELETE /api/sessions/:id/queue
func (h *QueueHandler) ClearQueue(c *gin.Context) {
	h.clearPartition(c, models.ItemTypeQueue)
}

// ClearHistory handles DELETE /api/sessions/:id/history
func (h *QueueHandler) ClearHistory(c *gin.Context) {
	h.clearPartition(c, models.ItemTypeHistory)
}

func (h *QueueHandler) clearPartition(c *gin.Context, itemType string) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.engine.Clear(ctx, id, itemType); err != nil {
		if !handleEngineError(c, err) {
			logger.Log.Error().Err(err).Str("session_id", id.String()).Str("item_type", itemType).Msg("Failed to clear partition")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "clear_failed",
				Message: "Failed to clear items",
			})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// SetHistoryCursor handles PUT /api/sessions/:id/history/cursor
func (h *QueueHandler) SetHistoryCursor(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	var req SetHistoryCursorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.engine.SetHistoryCursor(ctx, id, *req.Index); err != nil {
		if !handleEngineError(c, err) {
			logger.Log.Error().Err(err).Str("session_id", id.String()).Msg("Failed to set history cursor")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "update_failed",
				Message: "Failed to set history cursor",
			})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// FairShuffle handles POST /api/sessions/:id/queue/shuffle
func (h *QueueHandler) FairShuffle(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.engine.FairShuffle(ctx, id); err != nil {
		if !handleEngineError(c, err) {
			logger.Log.Error().Err(err).Str("session_id", id.String()).Msg("Failed to shuffle queue")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "shuffle_failed",
				Message: "Failed to shuffle queue",
			})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// SetupQueueRoutes registers queue and history routes
func SetupQueueRoutes(apiGroup *gin.RouterGroup, engine *queue.Engine) {
	handler := NewQueueHandler(engine)

	apiGroup.GET("/sessions/:id/items", handler.GetSnapshot)

	// Queue partition
	apiGroup.POST("/sessions/:id/queue", handler.AppendQueueItem)
	apiGroup.POST("/sessions/:id/queue/shuffle", handler.FairShuffle)
	apiGroup.DELETE("/sessions/:id/queue", handler.ClearQueue)
	apiGroup.DELETE("/sessions/:id/queue/:item_id", handler.RemoveQueueItem)
	apiGroup.PUT("/sessions/:id/queue/:item_id/position", handler.MoveQueueItem)
	apiGroup.POST("/sessions/:id/queue/:item_id/play", handler.PromoteToHistory)

	// History partition
	apiGroup.POST("/sessions/:id/history", handler.AddDirectToHistory)
	apiGroup.POST("/sessions/:id/history/requeue", handler.RequeueHistory)
	apiGroup.DELETE("/sessions/:id/history", handler.ClearHistory)
	apiGroup.PUT("/sessions/:id/history/cursor", handler.SetHistoryCursor)
}
