package controller

import (
	"context"

	"intelliprep-notes-be/internal/dto"
	"intelliprep-notes-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, category, background string) []string
}

type IAIController interface {
	RegisterRoutes(r fiber.Router)
	GenerateQuestions(ctx *fiber.Ctx) error
}

type aiController struct {
	generator QuestionGenerator
	authMw    fiber.Handler
}

func NewAIController(generator QuestionGenerator, authMw fiber.Handler) IAIController {
	return &aiController{
		generator: generator,
		authMw:    authMw,
	}
}

func (c *aiController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/ai/v1")
	h.Use(c.authMw)
	h.Post("questions", c.GenerateQuestions)
}

// GenerateQuestions never fails on model errors: the built-in list is returned instead.
func (c *aiController) GenerateQuestions(ctx *fiber.Ctx) error {
	var req dto.GenerateQuestionsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	questions := c.generator.GenerateQuestions(ctx.UserContext(), req.Category, req.Context)
	return ctx.JSON(serverutils.SuccessResponse("Success generate questions", dto.GenerateQuestionsResponse{
		Questions: questions,
	}))
}
