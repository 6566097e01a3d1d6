package controllers

import (
	"encoding/json"
	"net/http"

	"civicsync-client/engine"

	"github.com/gin-gonic/gin"
)

// GetState handles returning the full view state
func GetState(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, e.State(c.Request.Context()))
	}
}

// StreamState handles the server-sent event stream of view updates
func StreamState(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := e.Hub.Register()
		if client == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Event stream unavailable"})
			return
		}
		defer e.Hub.Unregister(client)

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		c.SSEvent("connected", gin.H{"status": "connected", "client_id": client.ID})
		c.Writer.Flush()

		clientGone := c.Request.Context().Done()
		for {
			select {
			case <-clientGone:
				return
			case ev, ok := <-client.Events:
				if !ok {
					return
				}
				data, _ := json.Marshal(ev.Data)
				c.SSEvent(ev.Name, string(data))
				c.Writer.Flush()
			}
		}
	}
}

// RetryMessage handles the retry action of the visible message
func RetryMessage(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !e.Exec.Messages().Retry(c.Request.Context()) {
			c.JSON(http.StatusConflict, gin.H{"error": "Nothing to retry"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Retried"})
	}
}

// DismissMessage handles hiding the visible message
func DismissMessage(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		e.Exec.Messages().Dismiss()
		c.Status(http.StatusNoContent)
	}
}

// GetTheme handles reading the theme preference
func GetTheme(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"theme": e.Theme.Theme(c.Request.Context())})
	}
}

// ToggleTheme handles switching between the dark and light theme
func ToggleTheme(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		theme, err := e.Theme.Toggle(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save theme", "theme": theme})
			return
		}
		e.Hub.Publish("theme", theme)
		c.JSON(http.StatusOK, gin.H{"theme": theme})
	}
}
