package handler

import (
	"errors"
	"log"
	"net/http"

	"speedrun/backend/internal/service"
	"speedrun/backend/internal/upload"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Message string `json:"message" example:"record 7: not found"`
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field" example:"time"`
	Message string `json:"message" example:"must be formatted as HH:MM:SS"`
}

// ValidationErrorResponse lists every rejected field of a request.
type ValidationErrorResponse struct {
	Errors []FieldError `json:"errors"`
}

// MessageResponse is returned by operations without a body of their own.
type MessageResponse struct {
	Message string `json:"message" example:"record deleted"`
}

// StatusFor picks the HTTP status for a service or upload error. Pages and
// the JSON API share it.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidReference),
		errors.Is(err, service.ErrIncompatibleReference),
		errors.Is(err, service.ErrCrossGameMismatch),
		errors.Is(err, upload.ErrUnsupportedType):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error body for err. Unexpected errors are logged
// and hidden from the client.
func respondError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, ErrorResponse{Message: "internal server error"})
		return
	}
	c.JSON(status, ErrorResponse{Message: err.Error()})
}

// respondBindError reports request binding failures, field by field when
// the validator produced them.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		resp := ValidationErrorResponse{Errors: make([]FieldError, 0, len(verrs))}
		for _, fe := range verrs {
			resp.Errors = append(resp.Errors, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
		c.JSON(http.StatusBadRequest, resp)
		return
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
}

func respondMissing(c *gin.Context, what string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Message: what + " not found"})
}
