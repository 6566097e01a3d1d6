package controllers

import (
	"net/http"

	"civicsync-client/engine"
	"civicsync-client/search"

	"github.com/gin-gonic/gin"
)

// SearchInput handles a change of the address search text
func SearchInput(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Text string `json:"text"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		e.Search.Input(c.Request.Context(), input.Text)
		c.Status(http.StatusAccepted)
	}
}

// SearchKey handles a navigation key pressed in the search input
func SearchKey(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Key string `json:"key" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		key, ok := parseKey(input.Key)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid key"})
			return
		}
		selected := e.Search.Key(key)
		c.JSON(http.StatusOK, gin.H{"selected": selected, "suggestions": e.Search.List().View()})
	}
}

func parseKey(k string) (search.Key, bool) {
	switch k {
	case "Down", "ArrowDown":
		return search.KeyDown, true
	case "Up", "ArrowUp":
		return search.KeyUp, true
	case "Enter":
		return search.KeyEnter, true
	case "Escape", "Esc":
		return search.KeyEscape, true
	}
	return "", false
}

type indexInput struct {
	Index *int `json:"index" binding:"required"`
}

// SearchHighlight handles hovering over a suggestion
func SearchHighlight(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input indexInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		e.Search.List().Highlight(*input.Index)
		c.JSON(http.StatusOK, e.Search.List().View())
	}
}

// SearchSelect handles clicking a suggestion
func SearchSelect(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input indexInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !e.Search.Select(*input.Index) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No selectable suggestion at index"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"text": e.Search.Text(), "viewport": e.Map.Viewport()})
	}
}

// SearchFocus handles focusing the search input
func SearchFocus(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		e.Search.List().Focus()
		c.JSON(http.StatusOK, e.Search.List().View())
	}
}

// SearchClear handles the clear button of the search input
func SearchClear(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		e.Search.Clear()
		c.Status(http.StatusNoContent)
	}
}

// SearchDismiss handles closing the suggestions without a choice
func SearchDismiss(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		e.Search.Dismiss()
		c.Status(http.StatusNoContent)
	}
}
