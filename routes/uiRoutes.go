package routes

import (
	"civicsync-client/controllers"
	"civicsync-client/engine"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// UIRoutes sets up the view state, event stream and preference routes
func UIRoutes(r *gin.Engine, e *engine.Engine) {
	ui := r.Group("/api/ui")
	{
		ui.GET("/state", gzip.Gzip(gzip.DefaultCompression), controllers.GetState(e))
		ui.GET("/stream", controllers.StreamState(e))
		ui.POST("/message/retry", controllers.RetryMessage(e))
		ui.POST("/message/dismiss", controllers.DismissMessage(e))
		ui.GET("/theme", controllers.GetTheme(e))
		ui.POST("/theme", controllers.ToggleTheme(e))
	}
}
