package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gyeh/odontoplan/internal/apperr"
)

const (
	CodeValidationError  = "VALIDATION_ERROR"
	CodeResourceNotFound = "RESOURCE_NOT_FOUND"
	CodeInvalidOperation = "INVALID_OPERATION"
	CodeInternalError    = "INTERNAL_ERROR"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// StatusFor maps an error class to its HTTP status and error code.
func StatusFor(err error) (int, string) {
	switch {
	case apperr.IsValidation(err):
		return http.StatusBadRequest, CodeValidationError
	case apperr.IsNotFound(err):
		return http.StatusNotFound, CodeResourceNotFound
	case apperr.IsInvalidOperation(err):
		return http.StatusConflict, CodeInvalidOperation
	default:
		return http.StatusInternalServerError, CodeInternalError
	}
}
