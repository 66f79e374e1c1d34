package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("send: %w", Conflict("Connection request already sent"))

	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.Equal(t, KindNotFound, KindOf(NotFound("x")))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "Not authorized", MessageOf(fmt.Errorf("accept: %w", Forbidden("Not authorized"))))
	assert.Equal(t, "Server error", MessageOf(errors.New("driver exploded")))
}

func TestIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("wrap: %w", Conflict("Request already processed"))

	assert.True(t, errors.Is(err, Conflict("")))
	assert.False(t, errors.Is(err, NotFound("")))
}

func TestInternalUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("Server error", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, "internal", err.Kind.String())
}
