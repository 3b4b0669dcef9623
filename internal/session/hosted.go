package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mpwalden/crooner/internal/db"
	"github.com/mpwalden/crooner/internal/logger"
	"github.com/mpwalden/crooner/internal/models"
)

// Claim atomically assigns the session's hosted fields to a remote identity.
//
// The conflict check and the write are one conditional UPDATE: the claim
// succeeds only when no prior holder is recorded, the requester already holds
// the session, or the prior claim has Ended status (or none). Zero affected
// rows after an existence check means another user holds a live claim.
// A separate read followed by a write would let two concurrent claimants both
// succeed, so the guard must stay inside the statement.
func (s *Service) Claim(ctx context.Context, sessionID uuid.UUID, hostedID, userID, status string) error {
	parsedStatus, ok := models.ParseHostedStatus(status)
	if !ok {
		logger.Log.Warn().
			Str("session_id", sessionID.String()).
			Str("status", status).
			Msg("Hosted claim failed: invalid status")
		return fmt.Errorf("failed to claim hosted session: %w", ErrInvalidHostedStatus)
	}

	// Existence first, so callers can tell "no such session" from "taken".
	if _, err := s.GetByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to claim hosted session: %w", err)
	}

	result := s.db.WithContext(ctx).Exec(`
		UPDATE sessions
		SET hosted_session_id = ?,
		    hosted_by_user_id = ?,
		    hosted_session_status = ?,
		    updated_at = ?
		WHERE id = ?
		  AND (hosted_by_user_id IS NULL
		       OR hosted_by_user_id = ?
		       OR hosted_session_status IS NULL
		       OR hosted_session_status = ?)
	`, hostedID, userID, string(parsedStatus), time.Now().UTC(),
		sessionID.String(), userID, string(models.HostedStatusEnded))
	if result.Error != nil {
		logger.Log.Error().
			Err(result.Error).
			Str("session_id", sessionID.String()).
			Msg("Failed to claim hosted session")
		return fmt.Errorf("failed to claim hosted session: %w", db.MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		logger.Log.Info().
			Str("session_id", sessionID.String()).
			Str("user_id", userID).
			Msg("Hosted claim rejected: held by another user")
		return fmt.Errorf("failed to claim hosted session: %w", ErrOwnershipConflict)
	}

	logger.Log.Info().
		Str("session_id", sessionID.String()).
		Str("hosted_session_id", hostedID).
		Str("user_id", userID).
		Str("status", string(parsedStatus)).
		Msg("Hosted session claimed")

	return nil
}

// UpdateHostedStatus overwrites only the hosted status field. No ownership
// check: this is the holder's Active/Paused/Ended transition.
func (s *Service) UpdateHostedStatus(ctx context.Context, sessionID uuid.UUID, status string) error {
	parsedStatus, ok := models.ParseHostedStatus(status)
	if !ok {
		logger.Log.Warn().
			Str("session_id", sessionID.String()).
			Str("status", status).
			Msg("Hosted status update failed: invalid status")
		return fmt.Errorf("failed to update hosted status: %w", ErrInvalidHostedStatus)
	}

	if _, err := s.GetByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to update hosted status: %w", err)
	}

	result := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ?", sessionID.String()).
		Updates(map[string]interface{}{
			"hosted_session_status": string(parsedStatus),
			"updated_at":            time.Now().UTC(),
		})
	if result.Error != nil {
		logger.Log.Error().
			Err(result.Error).
			Str("session_id", sessionID.String()).
			Msg("Failed to update hosted status")
		return fmt.Errorf("failed to update hosted status: %w", db.MapGormError(result.Error))
	}

	logger.Log.Info().
		Str("session_id", sessionID.String()).
		Str("status", string(parsedStatus)).
		Msg("Hosted status updated")

	return nil
}
