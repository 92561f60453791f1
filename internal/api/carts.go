package api

import (
	"net/http" // HTTP status codes

	"shop_api/internal/domain"  // Importing domain models
	"shop_api/internal/service" // Cart engine

	"github.com/gin-gonic/gin" // Gin web framework
)

// CartResponse carries the cart and its total, derived on every response
type CartResponse struct {
	Cart  *domain.Cart `json:"cart"`  // Cart with lines
	Total string       `json:"total"` // Sum of price times quantity
}

func cartResponse(cart *domain.Cart) CartResponse {
	return CartResponse{Cart: cart, Total: cart.Total().StringFixed(2)}
}

// QuantityRequest is the body of a quantity change
type QuantityRequest struct {
	Quantity int `json:"quantity"` // New quantity, at least 1
}

// GetCartHandler returns the caller's cart, creating it on first use
func GetCartHandler(carts *service.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			return
		}
		cart, err := carts.GetOrCreate(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cartResponse(cart))
	}
}

// UpsertLineHandler adds a product or replaces its quantity
func UpsertLineHandler(carts *service.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			return
		}
		var req service.LineInput // Bind JSON request to struct
		if !bindJSON(c, &req) {
			return
		}
		cart, err := carts.UpsertLine(c.Request.Context(), userID, req)
		if err != nil {
			respondError(c, err) // Every invalid field is reported
			return
		}
		c.JSON(http.StatusOK, cartResponse(cart))
	}
}

// SetQuantityHandler replaces the quantity of a line already in the cart
func SetQuantityHandler(carts *service.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			return
		}
		productID, ok := positiveParam(c, "productId") // Product from path
		if !ok {
			return
		}
		var req QuantityRequest // Bind JSON request to struct
		if !bindJSON(c, &req) {
			return
		}
		cart, err := carts.SetLineQuantity(c.Request.Context(), userID, int64(productID), req.Quantity)
		if err != nil {
			respondError(c, err) // Missing cart or line
			return
		}
		c.JSON(http.StatusOK, cartResponse(cart))
	}
}

// RemoveLineHandler drops a product from the cart
func RemoveLineHandler(carts *service.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			return
		}
		productID, ok := positiveParam(c, "productId") // Product from path
		if !ok {
			return
		}
		cart, err := carts.RemoveLine(c.Request.Context(), userID, int64(productID))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cartResponse(cart))
	}
}

// ClearCartHandler empties the cart
func ClearCartHandler(carts *service.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			return
		}
		cart, err := carts.Clear(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cartResponse(cart))
	}
}
