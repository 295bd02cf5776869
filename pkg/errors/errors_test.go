package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsIdentity(t *testing.T) {
	err := Clonef(ErrDuplicateEntity, "course %s already exists", "COMP 410")
	assert.Equal(t, "course COMP 410 already exists", err.Error())
	assert.True(t, errors.Is(err, ErrDuplicateEntity))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, http.StatusConflict, err.Status)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	raw := fmt.Errorf("boom")
	appErr := FromError(raw)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.ErrorIs(t, appErr, raw)

	wrapped := fmt.Errorf("outer: %w", Clone(ErrInvalidFormat, "bad department"))
	assert.Equal(t, ErrInvalidFormat.Code, FromError(wrapped).Code)
	assert.Nil(t, FromError(nil))
}
