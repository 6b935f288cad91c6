package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_WrappedChain(t *testing.T) {
	err := fmt.Errorf("add cook: %w", Conflict("user %d is already a cook", 3))

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindConflict, kind)
	assert.True(t, Is(err, KindConflict))
	assert.False(t, Is(err, KindForbidden))
}

func TestKindOf_PlainError(t *testing.T) {
	_, ok := KindOf(errors.New("boom"))
	assert.False(t, ok)
	assert.False(t, Is(nil, KindNotFound))
}

func TestUpstream_UnwrapsCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Upstream("confirmation mail was not delivered", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "upstream_unavailable")
}
