package controller

import (
	"context"
	"strings"

	"intelliprep-notes-be/internal/apperror"
	"intelliprep-notes-be/internal/dto"
	"intelliprep-notes-be/internal/notestore"
	"intelliprep-notes-be/internal/pkg/serverutils"
	"intelliprep-notes-be/pkg/enrichment"

	"github.com/gofiber/fiber/v2"
)

// StoreProvider hands out a user's loaded note store.
type StoreProvider interface {
	Acquire(ctx context.Context, userId string) (*notestore.Store, error)
}

type INoteController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	ToggleFavorite(ctx *fiber.Ctx) error
	Summarize(ctx *fiber.Ctx) error
	Enhance(ctx *fiber.Ctx) error
	State(ctx *fiber.Ctx) error
	ClearError(ctx *fiber.Ctx) error
	Tags(ctx *fiber.Ctx) error
}

type noteController struct {
	stores StoreProvider
	authMw fiber.Handler
}

func NewNoteController(stores StoreProvider, authMw fiber.Handler) INoteController {
	return &noteController{
		stores: stores,
		authMw: authMw,
	}
}

func (c *noteController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/note/v1")
	h.Use(c.authMw)
	h.Get("", c.List)
	h.Get("state", c.State)
	h.Delete("state/error", c.ClearError)
	h.Get("tags", c.Tags)
	h.Post("", c.Create)
	h.Put(":id", c.Update)
	h.Delete(":id", c.Delete)
	h.Post(":id/favorite", c.ToggleFavorite)
	h.Post(":id/summarize", c.Summarize)
	h.Post(":id/enhance", c.Enhance)
}

func (c *noteController) store(ctx *fiber.Ctx) (*notestore.Store, error) {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return nil, err
	}
	return c.stores.Acquire(ctx.UserContext(), userId)
}

func (c *noteController) List(ctx *fiber.Ctx) error {
	var q dto.ListNotesQuery
	if err := ctx.QueryParser(&q); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(q); err != nil {
		return err
	}

	store, err := c.store(ctx)
	if err != nil {
		return err
	}
	if q.Refresh {
		if err := store.Load(ctx.UserContext()); err != nil {
			return err
		}
	}

	store.SetSearchQuery(q.Q)
	store.SetSelectedTags(splitTags(q.Tags))
	notes := store.SortedBy(notestore.SortKey(q.Sort))

	return ctx.JSON(serverutils.SuccessResponse("Success list notes", dto.ListNotesResponse{
		Notes: notes,
		Total: len(notes),
	}))
}

func (c *noteController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	store, err := c.store(ctx)
	if err != nil {
		return err
	}
	note, err := store.Create(ctx.UserContext(), notestore.CreateInput{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create note", note))
}

func (c *noteController) Update(ctx *fiber.Ctx) error {
	var req dto.UpdateNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if field := req.ImmutableField(); field != "" {
		return apperror.Validation("update", field+" cannot be changed")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	store, err := c.store(ctx)
	if err != nil {
		return err
	}
	note, err := store.Update(ctx.UserContext(), ctx.Params("id"), req.ToPatch())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update note", note))
}

func (c *noteController) Delete(ctx *fiber.Ctx) error {
	store, err := c.store(ctx)
	if err != nil {
		return err
	}
	id := ctx.Params("id")
	if err := store.Delete(ctx.UserContext(), id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete note", dto.DeleteNoteResponse{Id: id}))
}

func (c *noteController) ToggleFavorite(ctx *fiber.Ctx) error {
	store, err := c.store(ctx)
	if err != nil {
		return err
	}
	note, err := store.ToggleFavorite(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success toggle favorite", note))
}

func (c *noteController) Summarize(ctx *fiber.Ctx) error {
	store, err := c.store(ctx)
	if err != nil {
		return err
	}
	note, err := store.Summarize(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success summarize note", note))
}

func (c *noteController) Enhance(ctx *fiber.Ctx) error {
	var req dto.EnhanceNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	store, err := c.store(ctx)
	if err != nil {
		return err
	}
	note, err := store.Enhance(ctx.UserContext(), ctx.Params("id"), enrichment.Mode(req.Mode))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success enhance note", note))
}

func (c *noteController) State(ctx *fiber.Ctx) error {
	store, err := c.store(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get state", dto.NewStateResponse(store.State())))
}

func (c *noteController) ClearError(ctx *fiber.Ctx) error {
	store, err := c.store(ctx)
	if err != nil {
		return err
	}
	store.ClearError()
	return ctx.JSON(serverutils.SuccessResponse[any]("Error cleared", nil))
}

func (c *noteController) Tags(ctx *fiber.Ctx) error {
	store, err := c.store(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list tags", dto.TagsResponse{Tags: store.AllTags()}))
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
