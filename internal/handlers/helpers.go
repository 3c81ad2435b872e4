package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "financehub/internal/errors"
	"financehub/internal/logger"
	"financehub/internal/middleware"
	"financehub/internal/models"
	"financehub/internal/services"
)

// getUserID extracts the authenticated owner ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString(middleware.UserIDKey)
	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// parsePathID reads a UUID path parameter.
// Returns ErrInvalidInput if the parameter is not a valid UUID.
//
//nolint:unparam // param is intentionally generic for reuse across handlers with different path params
func parsePathID(c *gin.Context, param string) (string, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id.String(), nil
}

// parseOptionalID validates an optional UUID taken from a request body or
// query string. Empty values yield nil.
func parseOptionalID(raw *string, field string) (*string, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+field)
	}
	s := id.String()
	return &s, nil
}

var flexibleTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseFlexibleTime accepts RFC 3339 timestamps as well as bare dates.
func parseFlexibleTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range flexibleTimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// parseDateRange reads start_date and end_date from the query string.
// Missing bounds default to the first day of the current month and today.
func parseDateRange(c *gin.Context) (services.DateRange, error) {
	return parseDateRangeFrom(c, 0)
}

// parseDateRangeFrom is parseDateRange with the default start moved back
// by monthsBack whole months.
func parseDateRangeFrom(c *gin.Context, monthsBack int) (services.DateRange, error) {
	now := time.Now().UTC()
	r := services.DateRange{
		Start: time.Date(now.Year(), now.Month()-time.Month(monthsBack), 1, 0, 0, 0, 0, time.UTC),
		End:   models.DateOnly(now),
	}

	if s := c.Query("start_date"); s != "" {
		t, err := parseFlexibleTime(s)
		if err != nil {
			return r, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid start_date format")
		}
		r.Start = models.DateOnly(t)
	}
	if s := c.Query("end_date"); s != "" {
		t, err := parseFlexibleTime(s)
		if err != nil {
			return r, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid end_date format")
		}
		r.End = models.DateOnly(t)
	}
	if r.End.Before(r.Start) {
		return r, apperrors.WithMessage(apperrors.ErrInvalidInput, "end_date must not be before start_date")
	}
	return r, nil
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrInternalServer.Code,
			"message": apperrors.ErrInternalServer.Message,
		},
	})
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Message string `json:"message"`
}
