package controllers

import (
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"

	"jobboard/dto"
	"jobboard/errors"
	"jobboard/internal/middleware"
	"jobboard/internal/models"
	"jobboard/internal/services"
	"jobboard/logger"
)

// statusFor maps a domain error to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.IsValidation(err):
		return fiber.StatusBadRequest
	case errors.Is(err, errors.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.IsForbidden(err):
		return fiber.StatusForbidden
	case errors.IsNotFound(err):
		return fiber.StatusNotFound
	case errors.IsAlreadyApplied(err),
		errors.IsJobClosed(err),
		errors.IsInvalidTransition(err),
		errors.Is(err, errors.ErrConflict):
		return fiber.StatusConflict
	case errors.IsStoreUnavailable(err):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// respondError writes the error body. Server-side failures do not leak their cause.
func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	body := dto.ErrorResponse{Error: err.Error(), Details: errors.GetAllDetails(err)}
	if status >= fiber.StatusInternalServerError {
		logger.Errorw("Request failed",
			"method", c.Method(), "path", c.Path(),
			"request_id", c.Locals(middleware.LocalRequestID), "error", err)
	}
	switch status {
	case fiber.StatusServiceUnavailable:
		c.Set(fiber.HeaderRetryAfter, "1")
		body = dto.ErrorResponse{Error: "service temporarily unavailable, try again"}
	case fiber.StatusInternalServerError:
		body = dto.ErrorResponse{Error: "internal server error"}
	}
	return c.Status(status).JSON(body)
}

// ErrorHandler is the app-wide fiber error handler. fiber.Error keeps its own code,
// everything else goes through the domain mapping.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(dto.ErrorResponse{Error: fe.Message})
	}
	return respondError(c, err)
}

func actorFrom(c *fiber.Ctx) (services.Actor, error) {
	uid, err := middleware.UIDObjectID(c)
	if err != nil {
		return services.Actor{}, errors.Wrap(errors.ErrUnauthorized, "missing user identity")
	}
	return services.Actor{ID: uid, Role: models.Role(middleware.RoleFromLocals(c))}, nil
}

func paramObjectID(c *fiber.Ctx, name string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(c.Params(name))
	if err != nil {
		return bson.NilObjectID, errors.NewValidationError("invalid %s", name)
	}
	return oid, nil
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return errors.NewValidationError("invalid request body")
	}
	return nil
}
