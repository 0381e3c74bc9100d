package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(New(CodeNotFound, "gone")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")), "uncoded errors default to internal")
}

func TestHasCodeSeesThroughWrapping(t *testing.T) {
	inner := New(CodeConflict, "version mismatch")
	outer := fmt.Errorf("saving change: %w", inner)

	assert.True(t, HasCode(outer, CodeConflict))
	assert.False(t, HasCode(outer, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal), "plain errors carry no code at all")
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "failed to load change")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to load change", MessageOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestMessageOfMasksUncoded(t *testing.T) {
	assert.Equal(t, "internal error", MessageOf(errors.New("secret detail")))
}
