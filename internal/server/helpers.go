// Package server contains HTTP handlers for the application's API endpoints.
package server

import (
	"errors"
	"strings"

	"acceso/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a non-empty route parameter by name.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (string, error) {
	id := strings.TrimSpace(c.Params(param))
	if id == "" {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid ID"))
		return "", errResponseWritten
	}
	return id, nil
}

// respondServiceError maps an AppError from the service layer onto an HTTP
// status. Upstream errors carry the access service's own status through.
func respondServiceError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	status := fiber.StatusInternalServerError
	switch appErr.Code {
	case "VALIDATION_ERROR":
		status = fiber.StatusBadRequest
	case "MISSING_CREDENTIAL":
		status = fiber.StatusUnauthorized
	case "NOT_FOUND":
		status = fiber.StatusNotFound
	case "UPSTREAM_ERROR":
		status = appErr.Status
		if status < 400 {
			status = fiber.StatusBadGateway
		}
	case "CONNECTIVITY_ERROR":
		status = fiber.StatusServiceUnavailable
	}

	return models.RespondWithError(c, status, appErr)
}
