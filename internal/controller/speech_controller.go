package controller

import (
	"context"
	"errors"
	"strings"
	"time"

	"intelliprep-notes-be/internal/apperror"
	"intelliprep-notes-be/internal/dto"
	"intelliprep-notes-be/internal/entity"
	"intelliprep-notes-be/internal/notestore"
	"intelliprep-notes-be/internal/pkg/serverutils"
	"intelliprep-notes-be/pkg/speech"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultDictationTimeout = 30 * time.Second
	voiceNoteDateLayout     = "1/2/2006"
)

// CoordinatorProvider returns the speech coordinator bound to a user's device.
type CoordinatorProvider interface {
	Coordinator(userId string) *speech.Coordinator
}

type ISpeechController interface {
	RegisterRoutes(r fiber.Router)
	Dictate(ctx *fiber.Ctx) error
}

type speechController struct {
	coordinators  CoordinatorProvider
	stores        StoreProvider
	defaultLocale string
	authMw        fiber.Handler
	now           func() time.Time
}

func NewSpeechController(coordinators CoordinatorProvider, stores StoreProvider, defaultLocale string, authMw fiber.Handler) ISpeechController {
	if defaultLocale == "" {
		defaultLocale = speech.DefaultLocale
	}
	return &speechController{
		coordinators:  coordinators,
		stores:        stores,
		defaultLocale: defaultLocale,
		authMw:        authMw,
		now:           time.Now,
	}
}

func (c *speechController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/speech/v1")
	h.Use(c.authMw)
	h.Post("dictate", c.Dictate)
}

// Dictate runs one recognition on the user's connected device. The transcript
// can be appended to an existing note or saved as a new one.
func (c *speechController) Dictate(ctx *fiber.Ctx) error {
	var req dto.DictateRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.ErrBadRequest
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	locale := req.Locale
	if locale == "" {
		locale = c.defaultLocale
	}
	timeout := defaultDictationTimeout
	if req.TimeoutSeconds > 0 {
		timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}

	dctx, cancel := context.WithTimeout(ctx.UserContext(), timeout)
	defer cancel()

	text, err := speech.Transcribe(dctx, c.coordinators.Coordinator(userId), locale)
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.Speech(speech.ErrorMessage("speech_timeout"))
	}
	if err != nil {
		return err
	}

	res := dto.DictateResponse{Text: text}
	if text != "" && (req.NoteId != "" || req.SaveAsNote) {
		note, err := c.save(ctx.UserContext(), userId, req, text)
		if err != nil {
			return err
		}
		res.Note = note
	}

	return ctx.JSON(serverutils.SuccessResponse("Success dictate", res))
}

func (c *speechController) save(ctx context.Context, userId string, req dto.DictateRequest, text string) (*entity.Note, error) {
	store, err := c.stores.Acquire(ctx, userId)
	if err != nil {
		return nil, err
	}

	if req.NoteId != "" {
		current := store.Search("", nil)
		for _, n := range current {
			if n.Id != req.NoteId {
				continue
			}
			content := n.Content
			if content != "" {
				content += " "
			}
			content += text
			return store.Update(ctx, n.Id, entity.NotePatch{Content: &content})
		}
		return nil, apperror.NotFound("dictate", req.NoteId)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Voice Note - " + c.now().Format(voiceNoteDateLayout)
	}
	return store.Create(ctx, notestore.CreateInput{Title: title, Content: text, Tags: req.Tags})
}
