package routes

import (
	"civicsync-client/controllers"
	"civicsync-client/engine"

	"github.com/gin-gonic/gin"
)

// MapRoutes sets up the map and filter routes
func MapRoutes(r *gin.Engine, e *engine.Engine) {
	m := r.Group("/api/map")
	{
		m.POST("/viewport", controllers.SetViewport(e))
		m.POST("/click", controllers.ClickMap(e))
		m.POST("/locate", controllers.LocateMe(e))
		m.POST("/zoom", controllers.ZoomMap(e))
	}

	filters := r.Group("/api/filters")
	{
		filters.POST("", controllers.ApplyFilters(e))
		filters.POST("/refresh", controllers.RefreshIssues(e))
	}
}
