package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"huntmate/backend/internal/api/handlers"
	"huntmate/backend/internal/api/middleware"
	"huntmate/backend/internal/config"
	"huntmate/backend/internal/services"
	"huntmate/backend/internal/storage"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, taskClient *asynq.Client) *gin.Engine {
	// Initialize services needed by API handlers HERE
	catalogService := services.NewCatalogService(db, cfg, rdb)
	bookingService := services.NewBookingService(db, cfg, catalogService)
	commentService := services.NewCommentService(db, cfg)

	photoStorage, err := storage.NewS3Storage(cfg)
	if err != nil {
		log.Fatalf("CRITICAL: Failed to initialize S3 storage for API: %v", err)
	}

	r := gin.Default()

	// Initialize Middleware
	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	// Apply global middleware first (order matters)
	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	// Initialize handlers
	bookingHandler := handlers.NewBookingHandler(bookingService, commentService, taskClient)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	authHandler := handlers.NewAuthHandler(cfg)
	uploadHandler := handlers.NewUploadHandler(cfg, photoStorage)
	adminHandler := handlers.NewAdminHandler(bookingService, commentService, catalogService, taskClient)

	v1 := r.Group("/v1")
	{
		// Public routes (rate limiting already applied globally). Requesters
		// are anonymous; possession of a booking ID or request number is the
		// credential.
		v1.GET("/catalog/types", catalogHandler.ListTypes)
		v1.GET("/catalog/templates", catalogHandler.ListTemplates)

		v1.POST("/booking", bookingHandler.CreateBooking)
		v1.GET("/booking/unread", bookingHandler.GetUnreadCounts)
		v1.GET("/booking/number/:number", bookingHandler.GetBookingByNumber)
		v1.GET("/booking/:id", bookingHandler.GetBooking)
		v1.PUT("/booking/:id", bookingHandler.UpdateBooking)
		v1.POST("/booking/:id/cancel", bookingHandler.CancelBooking)
		v1.DELETE("/booking/:id", bookingHandler.DeleteBooking)
		v1.GET("/booking/:id/comments", bookingHandler.ListComments)
		v1.POST("/booking/:id/comments", bookingHandler.AppendComment)
		v1.POST("/booking/:id/comments/read", bookingHandler.MarkCommentsRead)
		v1.POST("/booking/photos", uploadHandler.UploadPhoto)

		v1.POST("/auth/login", authHandler.Login)

		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		// Staff routes
		staffRequired := v1.Group("/admin")
		staffRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			staffRequired.GET("/bookings", adminHandler.ListBookings)
			staffRequired.GET("/bookings/unread", adminHandler.GetUnreadCounts)
			staffRequired.POST("/bookings/:id/status", adminHandler.UpdateStatus)
			staffRequired.GET("/bookings/:id/comments", adminHandler.ListComments)
			staffRequired.POST("/bookings/:id/comments", adminHandler.AppendComment)
			staffRequired.POST("/bookings/bulk/status", adminHandler.BulkUpdateStatus)

			// Destructive and catalog-shaping operations need the admin role.
			adminRequired := staffRequired.Group("/")
			adminRequired.Use(middleware.AdminMiddleware())
			{
				adminRequired.DELETE("/bookings/:id", adminHandler.DeleteBooking)
				adminRequired.POST("/bookings/bulk/delete", adminHandler.BulkDelete)

				adminRequired.GET("/catalog/types", adminHandler.ListAllTypes)
				adminRequired.POST("/catalog/types/:id/reorder", adminHandler.ReorderType)
				adminRequired.POST("/catalog/types/:id/toggle", adminHandler.ToggleType)
				adminRequired.GET("/catalog/templates", adminHandler.ListAllTemplates)
				adminRequired.POST("/catalog/templates", adminHandler.CreateTemplate)
				adminRequired.PUT("/catalog/templates/:id", adminHandler.UpdateTemplate)
				adminRequired.POST("/catalog/templates/:id/reorder", adminHandler.ReorderTemplate)
				adminRequired.DELETE("/catalog/templates/:id", adminHandler.DeleteTemplate)
			}
		}
	}

	return r
}
