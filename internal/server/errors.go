package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	gatewaydomain "github.com/formpay/formpay/internal/gateway/domain"
	orderdomain "github.com/formpay/formpay/internal/order/domain"
	reconciledomain "github.com/formpay/formpay/internal/reconcile/domain"
)

// ErrorHandlingMiddleware converts errors attached to the gin context into a
// JSON error response. Handlers abort with AbortWithError and return.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, code := mapError(err)
		c.JSON(status, gin.H{"error": code})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, gatewaydomain.ErrInvalidSignature):
		return http.StatusUnauthorized, "invalid_signature"
	case errors.Is(err, gatewaydomain.ErrInvalidPayload),
		errors.Is(err, reconciledomain.ErrMalformed),
		errors.Is(err, orderdomain.ErrInvalidRequest),
		errors.Is(err, orderdomain.ErrInvalidAmount),
		errors.Is(err, orderdomain.ErrInvalidCurrency):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, gatewaydomain.ErrProviderNotFound):
		return http.StatusNotFound, "provider_not_found"
	case errors.Is(err, reconciledomain.ErrOrderNotFound),
		errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "order_not_found"
	case errors.Is(err, gatewaydomain.ErrUnavailable),
		errors.Is(err, gatewaydomain.ErrRequestRejected):
		return http.StatusBadGateway, "provider_unavailable"
	case errors.Is(err, reconciledomain.ErrAmbiguousOrder):
		return http.StatusInternalServerError, "internal_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
