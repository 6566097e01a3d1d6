package routes

import (
	"civicsync-client/controllers"
	"civicsync-client/engine"

	"github.com/gin-gonic/gin"
)

// SearchRoutes sets up the address search routes
func SearchRoutes(r *gin.Engine, e *engine.Engine) {
	s := r.Group("/api/search")
	{
		s.POST("/input", controllers.SearchInput(e))
		s.POST("/key", controllers.SearchKey(e))
		s.POST("/highlight", controllers.SearchHighlight(e))
		s.POST("/select", controllers.SearchSelect(e))
		s.POST("/focus", controllers.SearchFocus(e))
		s.POST("/clear", controllers.SearchClear(e))
		s.POST("/dismiss", controllers.SearchDismiss(e))
	}
}
