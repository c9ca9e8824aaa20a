package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"style-classifier-be/internal/pkg/apperr"
)

// ErrorHandlerMiddleware maps domain errors to HTTP statuses so controllers
// can simply return errors from the service layer.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		code := fiber.StatusInternalServerError
		switch {
		case errors.Is(err, apperr.ErrInvalidInput):
			code = fiber.StatusBadRequest
		case errors.Is(err, apperr.ErrRequestInFlight):
			code = fiber.StatusConflict
		case errors.Is(err, apperr.ErrSessionAbsent):
			code = fiber.StatusNotFound
		case errors.Is(err, apperr.ErrEmbedder):
			code = fiber.StatusBadGateway
		case errors.Is(err, apperr.ErrPersistence):
			code = fiber.StatusServiceUnavailable
		case errors.Is(err, apperr.ErrConfiguration):
			code = fiber.StatusInternalServerError
		}

		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}
