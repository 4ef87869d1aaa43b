package serverutils

import (
	"strings"

	"intelliprep-notes-be/internal/apperror"
	"intelliprep-notes-be/internal/auth"

	"github.com/gofiber/fiber/v2"
)

const userIdLocal = "user_id"

// SessionTracker is told about every authenticated request.
type SessionTracker interface {
	SignIn(userId string)
}

// JwtMiddleware verifies the bearer token and stores the user id in Locals.
// tracker may be nil.
func JwtMiddleware(secret []byte, tracker SessionTracker) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
		}

		userId, err := auth.GetUserIDFromToken(strings.TrimPrefix(authHeader, "Bearer "), secret)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
		}

		if tracker != nil {
			tracker.SignIn(userId)
		}
		ctx.Locals(userIdLocal, userId)
		return ctx.Next()
	}
}

// UserID returns the id stored by JwtMiddleware.
func UserID(ctx *fiber.Ctx) (string, error) {
	userId, ok := ctx.Locals(userIdLocal).(string)
	if !ok || userId == "" {
		return "", apperror.Auth("request")
	}
	return userId, nil
}
