package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"graphfetch/internal/apperr"
)

// AppError is the HTTP-facing error shape, trimmed from the
// engine.AppError (no Details/validation-rule machinery: this module has
// no field-level validation rules).
type AppError struct {
	Code    string `json:"code"`
	Status  int    `json:"-"`
	Message string `json:"message"`
}

func (e *AppError) Error() string { return e.Message }

type ErrorResponse struct {
	Error *AppError `json:"error"`
}

// statusFor maps an apperr.Kind to the HTTP status the
// engine.AppError convention uses for the nearest equivalent.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.InvalidArgument:
		return fiber.StatusBadRequest
	case apperr.SchemaError, apperr.UnsupportedComposite:
		return fiber.StatusUnprocessableEntity
	case apperr.NotFound:
		return fiber.StatusNotFound
	case apperr.DatabaseError, apperr.ImplementationError:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler is the Fiber error handler wired into cmd/graphfetchd,
// mirroring the cmd/server.errorHandler structure.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if ae, ok := apperr.As(err); ok {
		return c.Status(statusFor(ae.Kind)).JSON(ErrorResponse{Error: &AppError{
			Code:    string(ae.Kind),
			Status:  statusFor(ae.Kind),
			Message: ae.Message,
		}})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(ErrorResponse{Error: &AppError{
			Code:    "BAD_REQUEST",
			Status:  fiberErr.Code,
			Message: fiberErr.Message,
		}})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: &AppError{
		Code:    "INTERNAL_ERROR",
		Status:  fiber.StatusInternalServerError,
		Message: "internal server error",
	}})
}
