package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ikkim/shopfront-backend/config"
	"github.com/ikkim/shopfront-backend/internal/app/controller"
	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/middleware"
)

type Router struct {
	authController        *controller.AuthController
	addressController     *controller.AddressController
	productController     *controller.ProductController
	reviewController      *controller.ReviewController
	cartController        *controller.CartController
	orderController       *controller.OrderController
	paymentController     *controller.PaymentController
	uploadController      *controller.UploadController
	orderStreamController *controller.OrderStreamController
	authMiddleware        *middleware.AuthMiddleware
	config                *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	addressController *controller.AddressController,
	productController *controller.ProductController,
	reviewController *controller.ReviewController,
	cartController *controller.CartController,
	orderController *controller.OrderController,
	paymentController *controller.PaymentController,
	uploadController *controller.UploadController,
	orderStreamController *controller.OrderStreamController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:        authController,
		addressController:     addressController,
		productController:     productController,
		reviewController:      reviewController,
		cartController:        cartController,
		orderController:       orderController,
		paymentController:     paymentController,
		uploadController:      uploadController,
		orderStreamController: orderStreamController,
		authMiddleware:        authMiddleware,
		config:                cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	v1 := router.Group("/api/v1")

	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "shopfront API is running",
		})
	})

	authenticated := r.authMiddleware.Authenticate()
	adminOnly := r.authMiddleware.RequireRole(model.RoleAdmin)

	user := v1.Group("/user")
	{
		user.POST("/signup", r.authController.Signup)
		user.POST("/signin", r.authController.Signin)
		user.POST("/refresh", r.authController.Refresh)
		user.POST("/logout", authenticated, r.authController.Logout)
		user.GET("/profile", authenticated, r.authController.GetProfile)

		user.GET("/addresses", authenticated, r.addressController.ListAddresses)
		user.POST("/address", authenticated, r.addressController.CreateAddress)
		user.DELETE("/address/:addressId", authenticated, r.addressController.DeleteAddress)
	}

	product := v1.Group("/product")
	{
		product.GET("/new", r.productController.GetNewArrivals)
		product.GET("/id/:id", r.productController.GetProductByID)
		product.GET("/:gender/:toplevelCat/:category", r.productController.ListProducts)

		product.POST("", authenticated, adminOnly, r.productController.CreateProduct)
		product.GET("/export", authenticated, adminOnly, r.productController.ExportProducts)

		product.POST("/review/:id", authenticated, r.reviewController.CreateReview)
		product.PUT("/review/:reviewId", authenticated, r.reviewController.UpdateReview)
		product.DELETE("/review/:reviewId", authenticated, r.reviewController.DeleteReview)
	}

	cart := v1.Group("/cart")
	cart.Use(authenticated)
	{
		cart.GET("", r.cartController.GetCart)
		cart.POST("", r.cartController.AddToCart)
		cart.PUT("", r.cartController.UpdateCartItem)
		cart.DELETE("/:cartItemId", r.cartController.RemoveFromCart)
	}

	order := v1.Group("/order")
	order.Use(authenticated)
	{
		order.POST("", r.orderController.CreateOrder)
		order.GET("/user", r.orderController.GetOrders)
		order.GET("/:id", r.orderController.GetOrderByID)
		order.PUT("/:id/status", adminOnly, r.orderController.UpdateOrderStatus)
	}

	payment := v1.Group("/payment")
	{
		payment.POST("/create-payment-intent", authenticated, r.paymentController.CreateCheckoutSession)
		payment.POST("/webhook", r.paymentController.Webhook)
	}

	v1.POST("/uploads/presigned-url", authenticated, adminOnly, r.uploadController.GeneratePresignedURL)

	v1.GET("/ws/orders", r.authMiddleware.AuthenticateQuery(), r.orderStreamController.Connect)

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", "X-Request-ID", "Stripe-Signature"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range allowedOrigins {
		if origin == "*" {
			// credentials cannot be combined with a literal wildcard
			cfg.AllowOriginFunc = func(string) bool { return true }
			return cors.New(cfg)
		}
	}
	if len(allowedOrigins) == 0 {
		cfg.AllowOriginFunc = func(string) bool { return false }
	} else {
		cfg.AllowOrigins = allowedOrigins
	}
	return cors.New(cfg)
}
