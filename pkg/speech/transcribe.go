package speech

import (
	"context"

	"intelliprep-notes-be/internal/apperror"
)

// Transcribe runs one session to completion and returns the final text. When the
// recognizer ends without a final result the last partial result is used.
func Transcribe(ctx context.Context, c *Coordinator, locale string) (string, error) {
	s, err := c.Listen(ctx, locale)
	if err != nil {
		return "", err
	}
	defer s.Close()

	var partial string
	for ev := range s.Events() {
		switch ev.Kind {
		case EventFinal:
			return ev.Text, nil
		case EventPartial:
			partial = ev.Text
		case EventError:
			return "", ev.Err
		case EventEnd:
			if partial == "" {
				return "", apperror.Speech(ErrorMessage("no_match"))
			}
			return partial, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return partial, nil
}
