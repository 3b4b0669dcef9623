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
	"github.com/mpwalden/crooner/internal/session"
)

// Request/Response DTOs

// StartSessionRequest represents a request to start a new session
type StartSessionRequest struct {
	Name string `json:"name" binding:"required"`
}

// ClaimHostedSessionRequest represents a remote identity's claim attempt
type ClaimHostedSessionRequest struct {
	HostedSessionID string `json:"hosted_session_id" binding:"required"`
	UserID          string `json:"user_id" binding:"required"`
	Status          string `json:"status" binding:"required"`
}

// UpdateHostedStatusRequest represents a hosted status transition
type UpdateHostedStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetActiveSingerRequest represents the active singer pointer update;
// a null singer_id clears the pointer
type SetActiveSingerRequest struct {
	SingerID *string `json:"singer_id"`
}

// SessionResponse represents a session in API responses
type SessionResponse struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	StartedAt           time.Time  `json:"started_at"`
	EndedAt             *time.Time `json:"ended_at,omitempty"`
	IsActive            bool       `json:"is_active"`
	HistoryIndex        int        `json:"history_index"`
	ActiveSingerID      *string    `json:"active_singer_id,omitempty"`
	HostedSessionID     *string    `json:"hosted_session_id,omitempty"`
	HostedByUserID      *string    `json:"hosted_by_user_id,omitempty"`
	HostedSessionStatus *string    `json:"hosted_session_status,omitempty"`
}

// SessionListResponse represents a list of sessions
type SessionListResponse struct {
	Sessions []*SessionResponse `json:"sessions"`
}

// SessionHandler handles session-related API requests
type SessionHandler struct {
	sessionService *session.Service
}

// NewSessionHandler creates a new session handler instance
func NewSessionHandler(sessionService *session.Service) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// toSessionResponse converts a session model to API response format
func toSessionResponse(s *models.Session) *SessionResponse {
	resp := &SessionResponse{
		ID:              s.ID.String(),
		Name:            s.Name,
		StartedAt:       s.StartedAt,
		EndedAt:         s.EndedAt,
		IsActive:        s.IsActive,
		HistoryIndex:    s.HistoryIndex,
		HostedSessionID: s.HostedSessionID,
		HostedByUserID:  s.HostedByUserID,
	}
	if s.ActiveSingerID != nil {
		id := s.ActiveSingerID.String()
		resp.ActiveSingerID = &id
	}
	if s.HostedSessionStatus != nil {
		status := string(*s.HostedSessionStatus)
		resp.HostedSessionStatus = &status
	}
	return resp
}

// parseSessionID extracts and validates the :id path parameter
func parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid session ID format",
		})
		return uuid.Nil, false
	}
	return id, true
}

// StartSession handles POST /api/sessions
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	newSession, err := h.sessionService.Start(ctx, req.Name)
	if err != nil {
		if errors.Is(err, session.ErrInvalidName) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_name",
				Message: "Session name must be 1-255 characters",
			})
			return
		}
		logger.Log.Error().Err(err).Msg("Failed to start session")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "start_failed",
			Message: "Failed to start session",
		})
		return
	}

	c.JSON(http.StatusCreated, toSessionResponse(newSession))
}

// GetActiveSession handles GET /api/sessions/active
func (h *SessionHandler) GetActiveSession(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	active, err := h.sessionService.Active(ctx)
	if err != nil {
		if errors.Is(err, session.ErrNoActiveSession) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "no_active_session",
				Message: "No session is currently active",
			})
			return
		}
		logger.Log.Error().Err(err).Msg("Failed to get active session")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve active session",
		})
		return
	}

	c.JSON(http.StatusOK, toSessionResponse(active))
}

// ListSessions handles GET /api/sessions
func (h *SessionHandler) ListSessions(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	sessions, err := h.sessionService.List(ctx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to list sessions")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve session list",
		})
		return
	}

	responses := make([]*SessionResponse, len(sessions))
	for i, s := range sessions {
		responses[i] = toSessionResponse(s)
	}
	c.JSON(http.StatusOK, SessionListResponse{Sessions: responses})
}

// EndSession handles POST /api/sessions/:id/end
func (h *SessionHandler) EndSession(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.sessionService.End(ctx, id); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Session not found",
			})
			return
		}
		logger.Log.Error().Err(err).Str("session_id", id.String()).Msg("Failed to end session")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "end_failed",
			Message: "Failed to end session",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// LoadSession handles POST /api/sessions/:id/load
func (h *SessionHandler) LoadSession(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	loaded, err := h.sessionService.Load(ctx, id)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Session not found",
			})
			return
		}
		logger.Log.Error().Err(err).Str("session_id", id.String()).Msg("Failed to load session")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "load_failed",
			Message: "Failed to load session",
		})
		return
	}

	c.JSON(http.StatusOK, toSessionResponse(loaded))
}

// ClaimHostedSession handles POST /api/sessions/:id/host/claim
func (h *SessionHandler) ClaimHostedSession(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	var req ClaimHostedSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	err := h.sessionService.Claim(ctx, id, req.HostedSessionID, req.UserID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidHostedStatus):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_status",
				Message: "Status must be active, paused, or ended",
			})
		case errors.Is(err, session.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Session not found",
			})
		case errors.Is(err, session.ErrOwnershipConflict):
			// Expected under concurrent hosts; the client can retry or show
			// "session is in use".
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "ownership_conflict",
				Message: "Session is hosted by another user",
			})
		default:
			logger.Log.Error().Err(err).Str("session_id", id.String()).Msg("Failed to claim hosted session")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "claim_failed",
				Message: "Failed to claim hosted session",
			})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateHostedStatus handles PUT /api/sessions/:id/host/status
func (h *SessionHandler) UpdateHostedStatus(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	var req UpdateHostedStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	err := h.sessionService.UpdateHostedStatus(ctx, id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidHostedStatus):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_status",
				Message: "Status must be active, paused, or ended",
			})
		case errors.Is(err, session.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Session not found",
			})
		default:
			logger.Log.Error().Err(err).Str("session_id", id.String()).Msg("Failed to update hosted status")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "update_failed",
				Message: "Failed to update hosted status",
			})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// SetActiveSinger handles PUT /api/sessions/:id/active-singer
func (h *SessionHandler) SetActiveSinger(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	var req SetActiveSingerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	var singerID *uuid.UUID
	if req.SingerID != nil {
		parsed, err := uuid.Parse(*req.SingerID)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_id",
				Message: "Invalid singer ID format",
			})
			return
		}
		singerID = &parsed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	err := h.sessionService.SetActiveSinger(ctx, id, singerID)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Session not found",
			})
		case errors.Is(err, session.ErrSingerNotInSession):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "not_a_member",
				Message: "Singer has not joined this session",
			})
		default:
			logger.Log.Error().Err(err).Str("session_id", id.String()).Msg("Failed to set active singer")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "update_failed",
				Message: "Failed to set active singer",
			})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// SetupSessionRoutes registers session-related routes
func SetupSessionRoutes(apiGroup *gin.RouterGroup, sessionService *session.Service) {
	handler := NewSessionHandler(sessionService)

	apiGroup.POST("/sessions", handler.StartSession)
	apiGroup.GET("/sessions", handler.ListSessions)
	apiGroup.GET("/sessions/active", handler.GetActiveSession)
	apiGroup.POST("/sessions/:id/end", handler.EndSession)
	apiGroup.POST("/sessions/:id/load", handler.LoadSession)
	apiGroup.PUT("/sessions/:id/active-singer", handler.SetActiveSinger)

	// Hosted session ownership
	apiGroup.POST("/sessions/:id/host/claim", handler.ClaimHostedSession)
	apiGroup.PUT("/sessions/:id/host/status", handler.UpdateHostedStatus)
}
