package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"invoicehub/internal/invoice"
)

type errorResponse struct {
	Detail string `json:"detail"`
	Kind   string `json:"kind,omitempty"`
}

type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string {
	return e.msg
}

func newBadRequest(msg string) error {
	return &badRequestError{msg: msg}
}

// ErrorHandlingMiddleware renders the last handler error as a JSON response.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, payload)
	}
}

// AbortWithError records err for ErrorHandlingMiddleware and stops the chain.
func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorResponse) {
	var badReq *badRequestError
	if errors.As(err, &badReq) {
		return http.StatusBadRequest, errorResponse{Detail: badReq.msg}
	}

	if errors.Is(err, invoice.ErrNotFound) {
		return http.StatusNotFound, errorResponse{Detail: "invoice not found"}
	}

	var procErr *invoice.ProcessingError
	if errors.As(err, &procErr) {
		return statusForKind(procErr), errorResponse{
			Detail: procErr.Message(),
			Kind:   string(procErr.Kind),
		}
	}

	return http.StatusInternalServerError, errorResponse{Detail: "internal server error"}
}

func statusForKind(err *invoice.ProcessingError) int {
	switch err.Kind {
	case invoice.KindUnsupportedFormat:
		if errors.Is(err, invoice.ErrDocumentTooLarge) {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusUnsupportedMediaType
	case invoice.KindExtractionEngine:
		return http.StatusBadGateway
	case invoice.KindMissingField, invoice.KindMalformedAmount:
		return http.StatusUnprocessableEntity
	case invoice.KindRateService:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
