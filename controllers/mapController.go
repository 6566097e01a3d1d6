package controllers

import (
	"errors"
	"net/http"

	"civicsync-client/engine"
	"civicsync-client/location"
	"civicsync-client/mapview"
	"civicsync-client/models"

	"github.com/gin-gonic/gin"
)

// SetViewport handles a pan or zoom made in the map widget
func SetViewport(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Lat  float64 `json:"lat"`
			Lng  float64 `json:"lng"`
			Zoom int     `json:"zoom"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		v := mapview.Viewport{Center: models.Point{Lat: input.Lat, Lng: input.Lng}, Zoom: input.Zoom}
		if !e.Map.SetViewport(v) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coordinates"})
			return
		}
		c.JSON(http.StatusOK, e.Map.Viewport())
	}
}

// ClickMap handles choosing a location by clicking the map
func ClickMap(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		err := e.Picker.Pick(c.Request.Context(), input.Lat, input.Lng)
		if errors.Is(err, location.ErrInvalidPosition) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coordinates"})
			return
		}
		// a failed lookup still selects the coordinates
		c.JSON(http.StatusOK, gin.H{"address": e.Submission.Address()})
	}
}

// LocateMe handles the device position reported by the front-end
func LocateMe(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Lat         *float64 `json:"lat"`
			Lng         *float64 `json:"lng"`
			Error       string   `json:"error"`
			Unsupported bool     `json:"unsupported"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var geo location.Geolocator
		switch {
		case input.Unsupported:
		case input.Error != "" || input.Lat == nil || input.Lng == nil:
			reason := input.Error
			if reason == "" {
				reason = "position unavailable"
			}
			geo = location.Fix{Err: errors.New(reason)}
		default:
			geo = location.Fix{Position: models.Point{Lat: *input.Lat, Lng: *input.Lng}}
		}

		if err := e.Picker.Locate(c.Request.Context(), geo); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, e.Map.Viewport())
	}
}

// ZoomMap handles the zoom in and zoom out buttons
func ZoomMap(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Delta int `json:"delta" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		zoom := e.Map.ZoomBy(input.Delta)
		c.JSON(http.StatusOK, gin.H{"zoom": zoom})
	}
}
