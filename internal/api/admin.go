package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Date filters

	"shop_api/internal/apperr"  // Error taxonomy
	"shop_api/internal/service" // Admin listings
	"shop_api/internal/store"   // Order filters

	"github.com/gin-gonic/gin" // Gin web framework
)

// ListUsersHandler returns a page of users
func ListUsersHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, size := pageParams(c) // Pagination parameters
		// Served from Redis when a fresh copy exists
		resp, err := users.List(c.Request.Context(), service.NewPage(page, size))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp) // Return the response
	}
}

// ListOrdersHandler returns all orders, with optional filtering by user, status, or date
func ListOrdersHandler(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			filter store.OrderFilter   // Filters from the query string
			fields []apperr.FieldError // Invalid filters
		)
		if userID := c.Query("user_id"); userID != "" {
			v, err := strconv.ParseUint(userID, 10, 63)
			if err != nil {
				fields = append(fields, apperr.FieldError{Field: "user_id", Reason: "must be a positive integer"})
			}
			filter.UserID = uint(v) // Filter by user ID
		}
		filter.Status = c.Query("status") // Filter by order status
		for _, p := range []struct {
			name string
			dst  **time.Time
		}{{"from", &filter.From}, {"to", &filter.To}} {
			raw := c.Query(p.name)
			if raw == "" {
				continue
			}
			t, err := parseDate(raw)
			if err != nil {
				fields = append(fields, apperr.FieldError{Field: p.name, Reason: "must be a date (YYYY-MM-DD) or RFC 3339 timestamp"})
				continue
			}
			*p.dst = &t // Filter by date bound
		}
		if len(fields) > 0 {
			respondError(c, apperr.Validation(fields...))
			return
		}
		page, size := pageParams(c) // Pagination parameters
		resp, err := orders.List(c.Request.Context(), filter, service.NewPage(page, size))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp) // Return the response
	}
}

// StatusRequest is the body of an order status change
type StatusRequest struct {
	Status string `json:"status"` // New order status
}

// UpdateOrderStatusHandler moves an order to a new status
func UpdateOrderStatusHandler(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := positiveParam(c, "id") // Order ID from path
		if !ok {
			return
		}
		var req StatusRequest // Bind JSON request to struct
		if !bindJSON(c, &req) {
			return
		}
		order, err := orders.UpdateStatus(c.Request.Context(), uint(id), req.Status)
		if err != nil {
			respondError(c, err) // Unknown status or missing order
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, raw)
}
