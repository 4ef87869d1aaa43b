package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NotFound("update", "n1"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrRemote))
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestRemoteSubCases(t *testing.T) {
	cause := errors.New("pq: permission denied for table notes")
	err := PermissionDenied("delete", cause)

	assert.True(t, errors.Is(err, ErrRemote))
	assert.True(t, errors.Is(err, &Error{Kind: KindRemote, Reason: ReasonPermissionDenied}))
	assert.False(t, errors.Is(err, &Error{Kind: KindRemote, Reason: ReasonQuotaExceeded}))
	assert.True(t, errors.Is(err, cause))
}

func TestUserMessageNeverLeaksRawErrors(t *testing.T) {
	raw := errors.New(`{"code":"PGRST301","message":"JWT expired"}`)

	assert.Equal(t, "Something went wrong. Please try again.", UserMessage(raw))
	assert.Equal(t, "Could not reach the notes service. Please try again.", UserMessage(Remote("load", raw)))
}
