package routers

import (
	"Bookstore/handlers"
	"Bookstore/jwt"
	"Bookstore/middleware"
	"Bookstore/services"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Dependencies struct {
	DB       *gorm.DB
	Tokens   *jwt.Manager
	Users    *services.UserService
	Catalog  *services.CatalogService
	Carts    *services.CartService
	Payments *services.PaymentService
	Logger   *zap.Logger

	AllowedOrigins []string
	UploadDir      string
}

func SetupRouters(d Dependencies) *gin.Engine {
	router := gin.New()
	// Recovery sits inside the request logger so panics still get an access log line.
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(d.Logger),
		gin.Recovery(),
		middleware.CORS(d.AllowedOrigins),
	)
	if err := router.SetTrustedProxies(nil); err != nil {
		d.Logger.Warn("set trusted proxies", zap.Error(err))
	}

	// Cover images uploaded by admins.
	router.Static("/uploads", d.UploadDir)

	router.GET("/health", func(c *gin.Context) {
		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			d.Logger.Error("health check", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/")
	api.Use(middleware.AuthMiddleware(d.Tokens, d.Logger), middleware.Authorize())
	{
		api.POST("/authenticate", func(context *gin.Context) {
			handlers.AuthenticateHandler(context, d.Users)
		})
		api.POST("/sign-up", func(context *gin.Context) {
			handlers.SignUpHandler(context, d.Users)
		})
	}

	admin := api.Group("/api/admin")
	{
		admin.POST("/category", func(context *gin.Context) {
			handlers.CreateCategoryHandler(context, d.Catalog)
		})
		admin.GET("/categories", func(context *gin.Context) {
			handlers.ListCategoriesHandler(context, d.Catalog)
		})
		admin.DELETE("/category/:id", func(context *gin.Context) {
			handlers.DeleteCategoryHandler(context, d.Catalog)
		})
		admin.POST("/book/:categoryId", func(context *gin.Context) {
			handlers.CreateBookHandler(context, d.Catalog)
		})
		admin.GET("/books", func(context *gin.Context) {
			handlers.ListBooksHandler(context, d.Catalog)
		})
		admin.GET("/book/:id", func(context *gin.Context) {
			handlers.GetBookHandler(context, d.Catalog)
		})
		admin.PUT("/book/:id", func(context *gin.Context) {
			handlers.UpdateBookHandler(context, d.Catalog)
		})
		admin.DELETE("/book/:id", func(context *gin.Context) {
			handlers.DeleteBookHandler(context, d.Catalog)
		})
		admin.PUT("/:categoryId/book/:bookId", func(context *gin.Context) {
			handlers.UpdateBookInCategoryHandler(context, d.Catalog)
		})
		admin.GET("/orders", func(context *gin.Context) {
			handlers.ListAllOrdersHandler(context, d.Carts)
		})
		admin.POST("/image", func(context *gin.Context) {
			handlers.UploadImageHandler(context, d.UploadDir)
		})
	}

	customer := api.Group("/api/customer")
	{
		customer.GET("/books", func(context *gin.Context) {
			handlers.ListBooksHandler(context, d.Catalog)
		})
		customer.GET("/book/search/:title", func(context *gin.Context) {
			handlers.SearchBooksHandler(context, d.Catalog)
		})
		customer.POST("/cart", func(context *gin.Context) {
			handlers.AddToCartHandler(context, d.Carts)
		})
		customer.POST("/placeOrder", func(context *gin.Context) {
			handlers.PlaceOrderHandler(context, d.Carts)
		})

		// Routes naming a user in the path only serve that user.
		own := customer.Group("", middleware.RequireSelf("userId"))
		own.GET("/cart/:userId", func(context *gin.Context) {
			handlers.GetCartHandler(context, d.Carts)
		})
		own.GET("/cart/:userId/add/:bookId", func(context *gin.Context) {
			handlers.IncreaseQuantityHandler(context, d.Carts)
		})
		own.GET("/cart/:userId/deduct/:bookId", func(context *gin.Context) {
			handlers.DecreaseQuantityHandler(context, d.Carts)
		})
		own.DELETE("/cart/:userId/remove/:bookId", func(context *gin.Context) {
			handlers.RemoveFromCartHandler(context, d.Carts)
		})
		own.GET("/orders/:userId", func(context *gin.Context) {
			handlers.ListOrdersHandler(context, d.Carts)
		})
	}

	payment := api.Group("/api/payment")
	{
		payment.GET("/config", func(context *gin.Context) {
			handlers.PaymentConfigHandler(context, d.Payments)
		})
		payment.POST("/create-payment-intent", func(context *gin.Context) {
			handlers.CreatePaymentIntentHandler(context, d.Payments)
		})
		payment.POST("/confirm", func(context *gin.Context) {
			handlers.ConfirmPaymentHandler(context, d.Payments)
		})
		payment.GET("/status/:id", func(context *gin.Context) {
			handlers.PaymentStatusHandler(context, d.Payments)
		})
	}

	return router
}
