package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("lookup: %w", Clone(ErrPageNotFound, "page abc expired"))

	got := FromError(wrapped)
	assert.Equal(t, "PAGE_NOT_FOUND", got.Code)
	assert.Equal(t, http.StatusNotFound, got.Status)
	assert.Equal(t, "page abc expired", got.Message)
	assert.Equal(t, "page not found or expired", ErrPageNotFound.Message)
}

func TestFromErrorWrapsUnknownAsInternal(t *testing.T) {
	cause := errors.New("boom")

	got := FromError(cause)
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.Equal(t, http.StatusInternalServerError, got.Status)
	assert.ErrorIs(t, got, cause)
	assert.Nil(t, FromError(nil))
}

func TestWrapMessageIncludesCause(t *testing.T) {
	err := Wrap(errors.New("dial tcp: refused"), ErrBadGateway.Code, ErrBadGateway.Status, "submit failed")
	assert.Equal(t, "submit failed: dial tcp: refused", err.Error())
}
