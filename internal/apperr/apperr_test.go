package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{InvalidInput("bad"), http.StatusBadRequest},
		{New(KindInsufficientFunds, "Not enough tokens"), http.StatusBadRequest},
		{New(KindAlreadyHandled, "Already handled"), http.StatusBadRequest},
		{New(KindConversionUnavailable, "no rate"), http.StatusBadRequest},
		{NotFound("Item not found"), http.StatusNotFound},
		{New(KindUnauthorized, "Invalid token"), http.StatusUnauthorized},
		{New(KindForbidden, "Admin only"), http.StatusForbidden},
		{New(KindUnavailable, "disabled"), http.StatusServiceUnavailable},
		{New(KindMisconfigured, "cost"), http.StatusBadRequest},
		{errors.New("disk full"), http.StatusInternalServerError},
		{fmt.Errorf("claim: %w", NotFound("Item not found")), http.StatusNotFound},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), tt.err.Error())
	}
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "Item not found", PublicMessage(NotFound("Item not found")))
	assert.Equal(t, "internal server error", PublicMessage(errors.New("sqlite: locked")))
	assert.Equal(t, "internal server error", PublicMessage(Wrap(KindInternal, errors.New("x"), "save failed")))
}

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("open: %w", New(KindInsufficientFunds, "Not enough tokens"))
	assert.True(t, errors.Is(err, ErrInsufficientFunds))
	assert.False(t, errors.Is(err, ErrNotFound))

	cause := errors.New("boom")
	assert.True(t, errors.Is(Wrap(KindInternal, cause, "save"), cause))
	assert.Equal(t, KindInternal, KindOf(cause))
}
