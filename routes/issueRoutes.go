package routes

import (
	"civicsync-client/controllers"
	"civicsync-client/engine"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the report form and submission routes
func IssueRoutes(r *gin.Engine, e *engine.Engine, submitLimiter gin.HandlerFunc) {
	form := r.Group("/api/form")
	{
		form.PUT("", controllers.UpdateForm(e))
		form.POST("/clear", controllers.ClearForm(e))
	}

	submit := []gin.HandlerFunc{controllers.SubmitIssue(e)}
	if submitLimiter != nil {
		submit = append([]gin.HandlerFunc{submitLimiter}, submit...)
	}

	issues := r.Group("/api/issues")
	{
		issues.POST("/submit", submit...)
	}
}
