package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	gatewaydomain "github.com/formpay/formpay/internal/gateway/domain"
	reconciledomain "github.com/formpay/formpay/internal/reconcile/domain"
)

const maxWebhookBody = 1 << 20

// HandlePaymentWebhook receives provider webhook deliveries. Ignored event
// types are acknowledged with 200 so providers stop retrying. An unmatched
// order is a 404: the provider keeps retrying, which lets a delivery that
// raced order creation match on a later attempt.
func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	provider := c.Param("provider")

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		AbortWithError(c, gatewaydomain.ErrInvalidPayload)
		return
	}

	result, err := s.reconcileSvc.IngestWebhook(c.Request.Context(), provider, payload, c.Request.Header)
	if err != nil {
		if errors.Is(err, gatewaydomain.ErrEventIgnored) {
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
			return
		}
		if errors.Is(err, reconciledomain.ErrOrderNotFound) {
			s.log.Warn("webhook for unknown order",
				zap.String("provider", provider))
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"applied": result.Applied,
	})
}
