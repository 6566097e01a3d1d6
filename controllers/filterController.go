package controllers

import (
	"net/http"

	"civicsync-client/engine"
	"civicsync-client/models"

	"github.com/gin-gonic/gin"
)

// ApplyFilters handles updating the filters and reloading the issues
func ApplyFilters(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Radius   *float64 `json:"radius"`
			Status   *string  `json:"status"`
			Category *string  `json:"category"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if input.Radius != nil {
			if *input.Radius <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid radius"})
				return
			}
			e.Refresh.SetRadius(*input.Radius)
		}
		if input.Category != nil {
			category := models.IssueCategory(*input.Category)
			if category != "" && !category.Valid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
				return
			}
			e.Refresh.SetCategory(category)
		}
		if input.Status != nil {
			e.Refresh.SetStatus(*input.Status)
		}

		refreshIssues(c, e)
	}
}

// RefreshIssues handles the refresh button
func RefreshIssues(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		refreshIssues(c, e)
	}
}

func refreshIssues(c *gin.Context, e *engine.Engine) {
	if err := e.Refresh.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load issues"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  e.Store.Len(),
		"filter": e.Refresh.State(),
	})
}
