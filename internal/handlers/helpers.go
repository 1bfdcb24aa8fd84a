package handlers

import (
	"errors"
	"net/http"

	"team-access-service/internal/repository"
	"team-access-service/internal/services"
	"team-access-service/pkg/response"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const routePrefix = "access/protected/api/v1"

// actorID reads the acting user's identity from the X-User-ID header set by
// the gateway.
func actorID(c fiber.Ctx) (uuid.UUID, error) {
	raw := c.Get("X-User-ID")
	if raw == "" {
		return uuid.Nil, errors.New("missing X-User-ID header")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.New("X-User-ID is not a valid UUID")
	}
	return id, nil
}

func paramUUID(c fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(name))
}

func unauthorized(c fiber.Ctx, msg string) error {
	return c.Status(http.StatusUnauthorized).JSON(
		response.CreateErrorResponse("UNAUTHORIZED", msg))
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(http.StatusBadRequest).JSON(
		response.CreateErrorResponse("INVALID_REQUEST", msg))
}

// serviceError maps the service error taxonomy onto HTTP statuses.
func serviceError(c fiber.Ctx, err error) error {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return c.Status(http.StatusBadRequest).JSON(
			response.CreateErrorResponse("VALIDATION_FAILED", validationErr.Error()))
	case errors.Is(err, repository.ErrNotFound):
		return c.Status(http.StatusNotFound).JSON(
			response.CreateErrorResponse("NOT_FOUND", err.Error()))
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(http.StatusConflict).JSON(
			response.CreateErrorResponse("INVALID_STATE_TRANSITION", err.Error()))
	case errors.Is(err, services.ErrForbidden):
		return c.Status(http.StatusForbidden).JSON(
			response.CreateErrorResponse("FORBIDDEN", err.Error()))
	default:
		return c.Status(http.StatusInternalServerError).JSON(
			response.CreateErrorResponse("INTERNAL_ERROR", "an internal error occurred"))
	}
}
