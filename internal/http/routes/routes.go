package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-cropper/internal/http/handlers"
	"github.com/phambaophuc/image-cropper/internal/http/middleware"
	"go.uber.org/zap"
)

type Router struct {
	cropHandler *handlers.CropHandler
	logger      *zap.Logger
}

func NewRouter(
	cropHandler *handlers.CropHandler,
	logger *zap.Logger,
) *Router {
	return &Router{
		cropHandler: cropHandler,
		logger:      logger,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.ValidateContentType())

	// API version 1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", r.cropHandler.HealthCheck)
		v1.GET("/stats", r.cropHandler.GetStats)

		crop := v1.Group("/crop")
		{
			crop.POST("/sessions", r.cropHandler.CreateSession)
			crop.GET("/sessions/:id", r.cropHandler.GetSession)
			crop.PUT("/sessions/:id/image", r.cropHandler.ReplaceImage)
			crop.POST("/sessions/:id/events", r.cropHandler.ApplyEvents)
			crop.POST("/sessions/:id/reset", r.cropHandler.ResetSession)
			crop.GET("/sessions/:id/preview", r.cropHandler.Preview)
			crop.POST("/sessions/:id/save", r.cropHandler.SaveSession)
			crop.DELETE("/sessions/:id", r.cropHandler.CancelSession)
			crop.GET("/results/:id", r.cropHandler.GetResult)
		}
	}

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "Image cropper is running",
		})
	})

	return router
}
