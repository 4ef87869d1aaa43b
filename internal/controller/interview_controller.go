package controller

import (
	"intelliprep-notes-be/internal/dto"
	"intelliprep-notes-be/internal/interview"
	"intelliprep-notes-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

type IInterviewController interface {
	RegisterRoutes(r fiber.Router)
	Complete(ctx *fiber.Ctx) error
	QuickNote(ctx *fiber.Ctx) error
}

type interviewController struct {
	importer *interview.Importer
	stores   StoreProvider
	authMw   fiber.Handler
}

func NewInterviewController(importer *interview.Importer, stores StoreProvider, authMw fiber.Handler) IInterviewController {
	return &interviewController{
		importer: importer,
		stores:   stores,
		authMw:   authMw,
	}
}

func (c *interviewController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/interview/v1")
	h.Use(c.authMw)
	h.Post("complete", c.Complete)
	h.Post("quick-note", c.QuickNote)
}

func (c *interviewController) Complete(ctx *fiber.Ctx) error {
	var req dto.CompleteInterviewRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	store, err := c.stores.Acquire(ctx.UserContext(), userId)
	if err != nil {
		return err
	}

	note, err := c.importer.Import(ctx.UserContext(), store, interview.Completion{
		SessionId:      req.SessionId,
		Transcript:     req.Transcript,
		SuggestedTitle: req.Title,
	})
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Interview saved to notes", note))
}

func (c *interviewController) QuickNote(ctx *fiber.Ctx) error {
	var req dto.QuickNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	store, err := c.stores.Acquire(ctx.UserContext(), userId)
	if err != nil {
		return err
	}

	note, err := c.importer.QuickNote(ctx.UserContext(), store, req.SessionId, req.Content, req.Title)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Quick note saved", note))
}
