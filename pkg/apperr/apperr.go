// Package apperr defines the error taxonomy shared by repositories, services
// and HTTP controllers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kinds. Every *Error unwraps to exactly one of these.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalid      = errors.New("invalid")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrStoreFailure = errors.New("store failure")
)

// Codes.
const (
	CodeUserNotFound      = "USER_NOT_FOUND"
	CodeProductNotFound   = "PRODUCT_NOT_FOUND"
	CodeNotInCart         = "NOT_IN_CART"
	CodeReviewNotFound    = "REVIEW_NOT_FOUND"
	CodeOrderNotFound     = "ORDER_NOT_FOUND"
	CodeInvalidQuantity   = "INVALID_QUANTITY"
	CodeInvalidRating     = "INVALID_RATING"
	CodeInvalidReference  = "INVALID_REFERENCE"
	CodeInvalidCartItem   = "INVALID_CART_ITEM"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeCartEmpty         = "CART_EMPTY"
	CodeCartChanged       = "CART_CHANGED"
	CodeReviewChanged     = "REVIEW_CHANGED"
	CodeAlreadyInWishlist = "ALREADY_IN_WISHLIST"
	CodeNotReviewAuthor   = "NOT_REVIEW_AUTHOR"
	CodeForbiddenRole     = "FORBIDDEN_ROLE"
	CodeStoreFailure      = "STORE_FAILURE"
)

// Error is a classified application error.
type Error struct {
	Kind    error  `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
	// Public marks a store failure whose Message is safe to show.
	Public bool `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func NotFound(code, message string) *Error {
	return &Error{Kind: ErrNotFound, Code: code, Message: message}
}

func Invalid(code, message string) *Error {
	return &Error{Kind: ErrInvalid, Code: code, Message: message}
}

func Unauthorized(code, message string) *Error {
	return &Error{Kind: ErrUnauthorized, Code: code, Message: message}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: ErrConflict, Code: code, Message: message}
}

// Store wraps a persistence error. A nil err yields nil.
func Store(err error, message string) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: ErrStoreFailure, Code: CodeStoreFailure, Message: message, Err: err}
}

// Incomplete reports a write that partly succeeded before a store failure.
// Its message is shown to the client.
func Incomplete(err error, message string) *Error {
	return &Error{Kind: ErrStoreFailure, Code: CodeStoreFailure, Message: message, Err: err, Public: true}
}

// CodeOf returns the code carried by err, or "" when err is not classified.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}

// HTTPStatus maps err to a response status.
func HTTPStatus(err error) int {
	if HasCode(err, CodeCartEmpty) {
		return http.StatusBadRequest
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the message safe to show a client.
func PublicMessage(err error) string {
	var ae *Error
	if !errors.As(err, &ae) {
		return "Internal Server Error"
	}
	if ae.Kind == ErrStoreFailure && !ae.Public {
		return "storage operation failed"
	}
	return ae.Message
}
