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
	"github.com/mpwalden/crooner/internal/singer"
)

// Singer DTOs

// CreateSingerRequest represents a request to create a new singer
type CreateSingerRequest struct {
	Name         string  `json:"name" binding:"required"`
	UniqueName   *string `json:"unique_name,omitempty"`
	Color        string  `json:"color"`
	IsPersistent bool    `json:"is_persistent"`
}

// UpdateSingerRequest represents a partial singer update
type UpdateSingerRequest struct {
	Name         *string `json:"name,omitempty"`
	UniqueName   *string `json:"unique_name,omitempty"`
	Color        *string `json:"color,omitempty"`
	IsPersistent *bool   `json:"is_persistent,omitempty"`
}

// SingerResponse represents a singer in API responses
type SingerResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	UniqueName   *string `json:"unique_name,omitempty"`
	Color        string  `json:"color"`
	IsPersistent bool    `json:"is_persistent"`
}

// SingerListResponse represents a list of singers
type SingerListResponse struct {
	Singers []*SingerResponse `json:"singers"`
}

// SingerHandler handles singer-related API requests
type SingerHandler struct {
	singerService *singer.Service
}

// NewSingerHandler creates a new singer handler instance
func NewSingerHandler(singerService *singer.Service) *SingerHandler {
	return &SingerHandler{singerService: singerService}
}

// toSingerResponse converts a singer model to API response format
func toSingerResponse(s *models.Singer) *SingerResponse {
	return &SingerResponse{
		ID:           s.ID.String(),
		Name:         s.Name,
		UniqueName:   s.UniqueName,
		Color:        s.Color,
		IsPersistent: s.IsPersistent,
	}
}

// CreateSinger handles POST /api/singers
func (h *SingerHandler) CreateSinger(c *gin.Context) {
	var req CreateSingerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	created, err := h.singerService.Create(ctx, req.Name, req.UniqueName, req.Color, req.IsPersistent)
	if err != nil {
		if errors.Is(err, singer.ErrInvalidName) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_name",
				Message: "Singer name must be 1-100 characters",
			})
			return
		}
		logger.Log.Error().Err(err).Msg("Failed to create singer")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create singer",
		})
		return
	}

	c.JSON(http.StatusCreated, toSingerResponse(created))
}

// ListSingers handles GET /api/singers
func (h *SingerHandler) ListSingers(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	singers, err := h.singerService.List(ctx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to list singers")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve singer list",
		})
		return
	}

	responses := make([]*SingerResponse, len(singers))
	for i, s := range singers {
		responses[i] = toSingerResponse(s)
	}
	c.JSON(http.StatusOK, SingerListResponse{Singers: responses})
}

// UpdateSinger handles PATCH /api/singers/:singer_id
func (h *SingerHandler) UpdateSinger(c *gin.Context) {
	id, err := uuid.Parse(c.Param("singer_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid singer ID format",
		})
		return
	}

	var req UpdateSingerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	updated, err := h.singerService.Update(ctx, id, req.Name, req.UniqueName, req.Color, req.IsPersistent)
	if err != nil {
		switch {
		case errors.Is(err, singer.ErrSingerNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Singer not found",
			})
		case errors.Is(err, singer.ErrInvalidName):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_name",
				Message: "Singer name must be 1-100 characters",
			})
		default:
			logger.Log.Error().Err(err).Str("singer_id", id.String()).Msg("Failed to update singer")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "update_failed",
				Message: "Failed to update singer",
			})
		}
		return
	}

	c.JSON(http.StatusOK, toSingerResponse(updated))
}

// JoinSession handles POST /api/sessions/:id/singers/:singer_id
func (h *SingerHandler) JoinSession(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}
	singerID, err := uuid.Parse(c.Param("singer_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid singer ID format",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.singerService.Join(ctx, sessionID, singerID); err != nil {
		switch {
		case errors.Is(err, singer.ErrSessionNotFound), errors.Is(err, singer.ErrSingerNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Session or singer not found",
			})
		case errors.Is(err, singer.ErrAlreadyJoined):
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "already_joined",
				Message: "Singer already joined this session",
			})
		default:
			logger.Log.Error().Err(err).Str("session_id", sessionID.String()).Str("singer_id", singerID.String()).Msg("Failed to join session")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "join_failed",
				Message: "Failed to join session",
			})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// LeaveSession handles DELETE /api/sessions/:id/singers/:singer_id
func (h *SingerHandler) LeaveSession(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}
	singerID, err := uuid.Parse(c.Param("singer_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid singer ID format",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.singerService.Leave(ctx, sessionID, singerID); err != nil {
		switch {
		case errors.Is(err, singer.ErrSessionNotFound), errors.Is(err, singer.ErrNotJoined):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Session membership not found",
			})
		default:
			logger.Log.Error().Err(err).Str("session_id", sessionID.String()).Str("singer_id", singerID.String()).Msg("Failed to leave session")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "leave_failed",
				Message: "Failed to leave session",
			})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// ListSessionSingers handles GET /api/sessions/:id/singers
func (h *SingerHandler) ListSessionSingers(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	singers, err := h.singerService.ListBySession(ctx, sessionID)
	if err != nil {
		logger.Log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Failed to list session singers")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve session singers",
		})
		return
	}

	responses := make([]*SingerResponse, len(singers))
	for i, s := range singers {
		responses[i] = toSingerResponse(s)
	}
	c.JSON(http.StatusOK, SingerListResponse{Singers: responses})
}

// SetupSingerRoutes registers singer-related routes
func SetupSingerRoutes(apiGroup *gin.RouterGroup, singerService *singer.Service) {
	handler := NewSingerHandler(singerService)

	apiGroup.POST("/singers", handler.CreateSinger)
	apiGroup.GET("/singers", handler.ListSingers)
	apiGroup.PATCH("/singers/:singer_id", handler.UpdateSinger)

	apiGroup.GET("/sessions/:id/singers", handler.ListSessionSingers)
	apiGroup.POST("/sessions/:id/singers/:singer_id", handler.JoinSession)
	apiGroup.DELETE("/sessions/:id/singers/:singer_id", handler.LeaveSession)
}
