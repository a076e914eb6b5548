package transport

import (
	"time"

	"github.com/ds124wfegd/fleet-insight/internal/transport/middleware"

	"github.com/gin-gonic/gin"
)

func InitRoutes(insightHandler *InsightHandler, notifyHandler *NotifyHandler, systemHandler *SystemHandler, requestTimeout time.Duration) *gin.Engine {

	router := gin.New()

	// Middleware
	router.Use(gin.CustomRecovery(recoverWithEnvelope))
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(requestTimeout))

	router.GET("/", systemHandler.Root)
	router.GET("/health", systemHandler.Health)
	router.GET("/scheduler-status", systemHandler.SchedulerStatus)

	// Insight routes
	router.GET("/metrics", insightHandler.Metrics)
	router.GET("/pull-insight", insightHandler.PullInsight)

	// Notification routes
	router.POST("/auto-notify", notifyHandler.AutoNotify)
	router.POST("/send-insight", notifyHandler.SendInsight)

	return router
}
