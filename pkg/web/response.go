package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/korjavin/whatthefridge/pkg/dish"
	"github.com/korjavin/whatthefridge/pkg/ingredient"
)

// APIError is the body of every failed request
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope wraps an APIError
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func respondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ingredient.ErrNotFound), errors.Is(err, dish.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, dish.ErrInvalidCategory), errors.Is(err, dish.ErrInvalidDish):
		return http.StatusBadRequest, "invalid_request"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
