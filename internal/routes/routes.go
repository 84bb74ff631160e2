package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/handlers"
	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	taskHandler *handlers.TaskHandler,
	realtimeHandler *handlers.RealtimeHandler,
	jwtSecret []byte,
) *gin.Engine {

	r.Use(middleware.AuthMiddleware(jwtSecret))

	// TASKS
	tasks := r.Group("/tasks")
	{
		tasks.POST("", taskHandler.Create)
		tasks.GET("", taskHandler.List)
		tasks.GET("/stats", taskHandler.Stats)
		tasks.GET("/:id", taskHandler.GetByID)
		tasks.PUT("/:id", taskHandler.Update)
		tasks.PATCH("/:id/complete", taskHandler.Complete)
		tasks.DELETE("/:id", taskHandler.Delete)
	}

	// REALTIME
	r.GET("/ws/tasks", realtimeHandler.Stream)

	return r
}
