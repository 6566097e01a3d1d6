package controllers

import (
	"errors"
	"net/http"

	"civicsync-client/engine"
	"civicsync-client/models"
	"civicsync-client/submission"

	"github.com/gin-gonic/gin"
)

// UpdateForm handles edits of the report form fields
func UpdateForm(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Category    string `json:"category"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		e.Submission.SetFields(input.Title, input.Description, models.IssueCategory(input.Category))
		c.JSON(http.StatusOK, gin.H{
			"form":    e.Submission.Form(),
			"counter": e.Submission.Counter(),
		})
	}
}

// ClearForm handles the clear button of the report form
func ClearForm(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		e.Submission.Reset()
		c.JSON(http.StatusOK, gin.H{"counter": e.Submission.Counter()})
	}
}

// SubmitIssue handles submitting the report form
func SubmitIssue(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := e.Submission.Submit(c.Request.Context())
		switch {
		case errors.Is(err, submission.ErrMissingFields):
			c.JSON(http.StatusBadRequest, gin.H{"error": submission.MissingFieldsText})
		case errors.Is(err, submission.ErrUnknownCategory):
			c.JSON(http.StatusBadRequest, gin.H{"error": submission.UnknownCategoryText})
		case err != nil:
			c.JSON(http.StatusBadGateway, gin.H{"error": submission.FailedPrefix + submission.Reason(err)})
		default:
			c.JSON(http.StatusCreated, gin.H{"message": submission.SubmittedText})
		}
	}
}
