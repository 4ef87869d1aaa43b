package serverutils

import (
	"errors"

	"intelliprep-notes-be/internal/apperror"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps an error onto an HTTP status.
func StatusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}

	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		return fiber.StatusBadRequest
	case apperror.KindAuth:
		return fiber.StatusUnauthorized
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindBusy:
		return fiber.StatusConflict
	case apperror.KindRemote, apperror.KindEnhancementFailed:
		return fiber.StatusBadGateway
	case apperror.KindSpeech:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// MessageFor returns the user-facing text. Raw backend errors are never exposed.
func MessageFor(err error) string {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	return apperror.UserMessage(err)
}

// ErrorHandlerMiddleware renders errors returned by later handlers in the response envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		status := StatusFor(err)
		return ctx.Status(status).JSON(ErrorResponse(status, MessageFor(err)))
	}
}
