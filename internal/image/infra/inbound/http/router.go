package http

import (
	"github.com/gin-gonic/gin"

	userDomain "github.com/davicafu/imagelab/internal/user/domain"

	"go.uber.org/zap"
)

func RegisterImageRoutes(
	r *gin.Engine,
	handler *ImageHandler,
	analytics *AnalyticsHandler,
	verifier userDomain.TokenVerifier,
	users userDomain.UserRepository,
	log *zap.Logger,
) {
	auth := AuthMiddleware(verifier, users, log)

	images := r.Group("/images", auth)
	{
		images.POST("/", handler.ProcessImage)
		images.GET("/", handler.ListImages)
		images.GET("/:id", handler.GetImage)
		images.PATCH("/:id/visibility", handler.UpdateVisibility)
	}

	events := r.Group("/events", auth)
	{
		events.GET("/recent", handler.RecentEvents)
	}

	stats := r.Group("/analytics", auth)
	{
		stats.GET("/styles/:style", analytics.GetStyleStats)
	}
}
