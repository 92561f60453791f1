package api

import (
	"net/http" // HTTP status codes
	"time"     // Durations

	"shop_api/internal/middleware" // Custom package for middleware
	"shop_api/internal/service"    // Business services

	"github.com/gin-gonic/gin" // Gin web framework
)

// Deps are the collaborators the router wires into handlers
type Deps struct {
	Auth     *service.Authenticator // Auth gate
	Users    *service.UserService   // Accounts
	Profiles *service.ProfileService
	Carts    *service.CartService
	Orders   *service.OrderService

	Limiter        middleware.RateLimiter // Limits register and login, nil disables
	RateLimit      int                    // Requests per window and client
	RateWindow     time.Duration          // Rate limit window
	Metrics        *middleware.Metrics    // Request metrics, nil disables
	MetricsHandler http.Handler           // Served at /metrics when set
	RequestTimeout time.Duration          // Per-request deadline
	UploadDir      string                 // Served at /uploads when set
	TrustedProxies []string               // Proxies allowed to set client IP headers
	AllowedOrigins []string               // CORS origins, empty allows any
}

// NewRouter builds the HTTP routes
func NewRouter(d Deps) (*gin.Engine, error) {
	r := gin.New() // Gin router instance
	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		return nil, err
	}
	corsHandler, err := middleware.CORS(d.AllowedOrigins) // Browser access from other origins
	if err != nil {
		return nil, err
	}
	// Global middleware also runs for unmatched routes, which answers preflights
	r.Use(gin.Recovery(), corsHandler, middleware.RequestLogger())
	if d.Metrics != nil {
		r.Use(d.Metrics.Handler()) // Count and time every request
	}
	r.Use(middleware.Timeout(d.RequestTimeout))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "shop API is running"}) // Welcome endpoint
	})
	if d.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(d.MetricsHandler)) // Prometheus scrape endpoint
	}
	if d.UploadDir != "" {
		r.Static("/uploads", d.UploadDir) // Uploaded images
	}

	auth := middleware.JWTAuthMiddleware(d.Auth)                                   // Protect routes with JWT
	admin := middleware.AdminOnlyMiddleware()                                      // Admin-only routes
	limit := middleware.RateLimit(d.Limiter, d.Metrics, d.RateLimit, d.RateWindow) // Throttle credential endpoints

	// User routes
	users := r.Group("/api/users")
	users.POST("/register", limit, RegisterHandler(d.Users)) // Registration endpoint
	users.POST("/login", limit, LoginHandler(d.Users))       // Login endpoint
	users.GET("/me", auth, MeHandler(d.Users))               // Current user
	users.PUT("/me", auth, UpdateMeHandler(d.Users))         // Update current user
	users.GET("", auth, admin, ListUsersHandler(d.Users))    // List users (admin)

	// Profile routes (protected by JWT)
	profiles := r.Group("/api/profiles", auth)
	profiles.GET("/me", GetProfileHandler(d.Profiles))             // Get profile
	profiles.PUT("/me", UpdateProfileHandler(d.Profiles))          // Update profile
	profiles.POST("/upload-photo", UploadPhotoHandler(d.Profiles)) // Upload profile image

	// Cart routes (protected by JWT)
	carts := r.Group("/api/carts", auth)
	carts.GET("/mycart", GetCartHandler(d.Carts))                // Get or create cart
	carts.POST("/item", UpsertLineHandler(d.Carts))              // Add or replace line
	carts.PUT("/item/:productId", SetQuantityHandler(d.Carts))   // Change quantity
	carts.DELETE("/item/:productId", RemoveLineHandler(d.Carts)) // Remove line
	carts.DELETE("/clear", ClearCartHandler(d.Carts))            // Empty cart

	// Order routes (protected by JWT, some admin only)
	orders := r.Group("/api/orders", auth)
	orders.POST("", CreateOrderHandler(d.Orders))                        // Place order
	orders.GET("/myorders", MyOrdersHandler(d.Orders))                   // Caller's orders
	orders.GET("/:id", GetOrderHandler(d.Orders))                        // Order by ID (owner or admin)
	orders.PUT("/:id/status", admin, UpdateOrderStatusHandler(d.Orders)) // Change status (admin)
	orders.GET("", admin, ListOrdersHandler(d.Orders))                   // List orders (admin)

	return r, nil
}
