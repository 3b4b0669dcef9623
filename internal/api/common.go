// Package api exposes the karaoke session engine over HTTP using Gin.
package api

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
