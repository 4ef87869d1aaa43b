package controller

import (
	"context"

	"intelliprep-notes-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

// SignOuter ends a user's session; listeners reset and drop the user's store.
type SignOuter interface {
	SignOut(userId string)
}

// SessionCleaner releases per-user resources that are not tied to the store.
type SessionCleaner interface {
	Forget(ctx context.Context, userId string)
}

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	SignOut(ctx *fiber.Ctx) error
}

type sessionController struct {
	sessions SignOuter
	cleaners []SessionCleaner
	authMw   fiber.Handler
}

func NewSessionController(sessions SignOuter, authMw fiber.Handler, cleaners ...SessionCleaner) ISessionController {
	return &sessionController{
		sessions: sessions,
		cleaners: cleaners,
		authMw:   authMw,
	}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/session/v1")
	h.Use(c.authMw)
	h.Post("signout", c.SignOut)
}

func (c *sessionController) SignOut(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	c.sessions.SignOut(userId)
	for _, cleaner := range c.cleaners {
		cleaner.Forget(ctx.UserContext(), userId)
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Signed out", nil))
}
