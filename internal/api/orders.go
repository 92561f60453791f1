package api

import (
	"net/http" // HTTP status codes

	"shop_api/internal/middleware" // Identity accessor
	"shop_api/internal/service"    // Order workflows

	"github.com/gin-gonic/gin" // Gin web framework
)

// CreateOrderHandler places an order from the submitted lines
func CreateOrderHandler(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			return
		}
		var req service.OrderInput // Bind JSON request to struct
		if !bindJSON(c, &req) {
			return
		}
		order, err := orders.Create(c.Request.Context(), userID, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}

// MyOrdersHandler lists the caller's orders
func MyOrdersHandler(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			return
		}
		list, err := orders.Mine(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// GetOrderHandler returns one order to its owner or an admin
func GetOrderHandler(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := positiveParam(c, "id") // Order ID from path
		if !ok {
			return
		}
		order, err := orders.Get(c.Request.Context(), middleware.CurrentUser(c), uint(id))
		if err != nil {
			respondError(c, err) // Missing, or owned by someone else
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
