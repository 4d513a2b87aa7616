package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	orderdomain "github.com/formpay/formpay/internal/order/domain"
)

// HandleCreateOrder creates an order and a provider payment link for a form
// submission.
func (s *Server) HandleCreateOrder(c *gin.Context) {
	var req orderdomain.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, orderdomain.ErrInvalidRequest)
		return
	}

	resp, err := s.orderSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (s *Server) HandleGetOrder(c *gin.Context) {
	order, err := s.orderSvc.Get(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}
