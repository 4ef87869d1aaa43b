package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation        Kind = "validation"
	KindAuth              Kind = "auth"
	KindNotFound          Kind = "not_found"
	KindRemote            Kind = "remote"
	KindEnhancementFailed Kind = "enhancement_failed"
	KindSpeech            Kind = "speech"
	KindBusy              Kind = "busy"
)

// Remote failure sub-cases.
const (
	ReasonPermissionDenied = "permission_denied"
	ReasonQuotaExceeded    = "quota_exceeded"
)

// Sentinels for errors.Is matching. Any *Error with the same Kind matches.
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrAuth              = &Error{Kind: KindAuth}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrRemote            = &Error{Kind: KindRemote}
	ErrEnhancementFailed = &Error{Kind: KindEnhancementFailed}
	ErrSpeech            = &Error{Kind: KindSpeech}
	ErrBusy              = &Error{Kind: KindBusy}
)

// Error is the single error type crossing the store and client boundaries.
// Message is always safe to show to a user; Err keeps the raw cause for logs.
type Error struct {
	Kind    Kind
	Op      string
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

func Validation(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

func Auth(op string) *Error {
	return &Error{Kind: KindAuth, Op: op, Message: "Please sign in to continue."}
}

func NotFound(op, id string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: fmt.Sprintf("Note %s was not found.", id)}
}

func Busy(op string) *Error {
	return &Error{Kind: KindBusy, Op: op, Message: "This note is already being processed. Please wait."}
}

func Remote(op string, err error) *Error {
	return &Error{Kind: KindRemote, Op: op, Message: "Could not reach the notes service. Please try again.", Err: err}
}

func PermissionDenied(op string, err error) *Error {
	return &Error{
		Kind:    KindRemote,
		Op:      op,
		Reason:  ReasonPermissionDenied,
		Message: "You do not have permission to change this note.",
		Err:     err,
	}
}

func QuotaExceeded(op string, err error) *Error {
	return &Error{
		Kind:    KindRemote,
		Op:      op,
		Reason:  ReasonQuotaExceeded,
		Message: "The notes service quota was exceeded. Please try again later.",
		Err:     err,
	}
}

func EnhancementFailed(op string, err error) *Error {
	return &Error{Kind: KindEnhancementFailed, Op: op, Message: "Failed to enhance note. Please try again.", Err: err}
}

func Speech(message string) *Error {
	return &Error{Kind: KindSpeech, Message: message}
}

// KindOf reports the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// UserMessage returns the user-facing text for err. Unknown errors never leak their text.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "Something went wrong. Please try again."
}
