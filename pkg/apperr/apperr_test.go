package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/storefront/pkg/apperr"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", apperr.NotFound(apperr.CodeProductNotFound, "product not found"), http.StatusNotFound},
		{"invalid", apperr.Invalid(apperr.CodeInvalidQuantity, "bad qty"), http.StatusBadRequest},
		{"author mismatch", apperr.Unauthorized(apperr.CodeNotReviewAuthor, "nope"), http.StatusForbidden},
		{"conflict", apperr.Conflict(apperr.CodeCartChanged, "changed"), http.StatusConflict},
		{"empty cart is a bad request", apperr.Conflict(apperr.CodeCartEmpty, "Cart is empty"), http.StatusBadRequest},
		{"store", apperr.Store(errors.New("boom"), "insert order"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("confirm: %w", apperr.NotFound(apperr.CodeUserNotFound, "user")), http.StatusNotFound},
		{"plain", errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperr.HTTPStatus(tt.err))
		})
	}
}

func TestStore_KeepsCauseAndClassifiedErrors(t *testing.T) {
	cause := errors.New("socket closed")
	err := apperr.Store(cause, "update cart")

	assert.ErrorIs(t, err, apperr.ErrStoreFailure)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, apperr.CodeStoreFailure, apperr.CodeOf(err))
	assert.Equal(t, "storage operation failed", apperr.PublicMessage(err))

	nf := apperr.NotFound(apperr.CodeNotInCart, "Product not in cart")
	assert.Same(t, nf, apperr.Store(nf, "ignored"))
	assert.Nil(t, apperr.Store(nil, "ignored"))
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("wrap: %w", apperr.Conflict(apperr.CodeCartEmpty, "Cart is empty"))
	assert.True(t, apperr.HasCode(err, apperr.CodeCartEmpty))
	assert.True(t, errors.Is(err, apperr.ErrConflict))
	assert.False(t, apperr.HasCode(nil, apperr.CodeCartEmpty))
	assert.Equal(t, "Cart is empty", apperr.PublicMessage(err))
}

func TestIncomplete_ShowsMessageKeepsCause(t *testing.T) {
	cause := errors.New("write conflict")
	err := apperr.Incomplete(cause, "Order placed but the cart was not cleared")

	assert.ErrorIs(t, err, apperr.ErrStoreFailure)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 500, apperr.HTTPStatus(err))
	assert.Equal(t, "Order placed but the cart was not cleared", apperr.PublicMessage(err))
}
