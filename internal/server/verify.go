package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	gatewaydomain "github.com/formpay/formpay/internal/gateway/domain"
	orderdomain "github.com/formpay/formpay/internal/order/domain"
	reconciledomain "github.com/formpay/formpay/internal/reconcile/domain"
)

// HandleVerifyRedirect lands the payer's browser after checkout. The redirect
// is never trusted on its own; the reconcile service re-fetches the status
// from the provider unless the redirect carried a valid signature. The
// response is always an HTML outcome page.
func (s *Server) HandleVerifyRedirect(c *gin.Context) {
	provider := c.Param("provider")

	result, err := s.reconcileSvc.VerifyRedirect(c.Request.Context(), provider, c.Request.URL.Query())
	if err != nil {
		s.log.Warn("redirect verification failed",
			zap.String("provider", provider),
			zap.Error(err))
		switch {
		case errors.Is(err, reconciledomain.ErrOrderNotFound),
			errors.Is(err, gatewaydomain.ErrProviderNotFound):
			renderOutcome(c, http.StatusNotFound, outcomeError, nil)
		default:
			renderOutcome(c, http.StatusOK, outcomeError, nil)
		}
		return
	}

	switch result.Order.Status {
	case orderdomain.StatusPaid:
		renderOutcome(c, http.StatusOK, outcomeSuccess, result.Order)
	case orderdomain.StatusFailed, orderdomain.StatusCancelled:
		renderOutcome(c, http.StatusOK, outcomeFailed, result.Order)
	default:
		renderOutcome(c, http.StatusOK, outcomePending, result.Order)
	}
}
