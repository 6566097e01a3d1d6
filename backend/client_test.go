package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"civicsync-client/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T, setup func(r *gin.Engine)) *Client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	setup(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", srv.Client())
}

func TestFetchIssuesSendsFilter(t *testing.T) {
	var rawQuery string
	c := newBackend(t, func(r *gin.Engine) {
		r.GET("/api/issues", func(c *gin.Context) {
			rawQuery = c.Request.URL.RawQuery
			c.JSON(http.StatusOK, []gin.H{
				{"id": 1, "title": "Pothole", "category": "roads", "status": "reported", "latitude": 12.97, "longitude": "77.59"},
				{"id": "b2", "title": "Leak", "category": "water", "latitude": nil, "longitude": 77.6},
			})
		})
	})

	issues, err := c.FetchIssues(context.Background(), models.Filter{
		Center:   models.Point{Lat: 12.9716, Lng: 77.5946},
		RadiusKm: 5,
		Category: models.Water,
	})
	require.NoError(t, err)
	require.Len(t, issues, 2)

	assert.Equal(t, "category=water&lat=12.9716&lng=77.5946&radius=5", rawQuery)
	assert.Equal(t, models.ID("1"), issues[0].ID)
	_, ok := issues[0].Position()
	assert.True(t, ok)
	_, ok = issues[1].Position()
	assert.False(t, ok)
}

func TestFetchIssuesAcceptsEnvelope(t *testing.T) {
	c := newBackend(t, func(r *gin.Engine) {
		r.GET("/api/issues", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"issues": []gin.H{{"id": "a"}}, "totalIssues": 1})
		})
	})

	issues, err := c.FetchIssues(context.Background(), models.Filter{RadiusKm: 1})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, models.ID("a"), issues[0].ID)
}

func TestFetchIssuesFailure(t *testing.T) {
	c := newBackend(t, func(r *gin.Engine) {
		r.GET("/api/issues", func(c *gin.Context) {
			c.Status(http.StatusInternalServerError)
		})
	})

	_, err := c.FetchIssues(context.Background(), models.Filter{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "Network response was not ok", apiErr.Message)
}

func TestCreateIssue(t *testing.T) {
	var received models.NewIssue
	c := newBackend(t, func(r *gin.Engine) {
		r.POST("/api/issues", func(c *gin.Context) {
			require.NoError(t, c.ShouldBindJSON(&received))
			c.JSON(http.StatusCreated, gin.H{
				"id":        42,
				"title":     received.Title,
				"category":  received.Category,
				"status":    received.Status,
				"latitude":  received.Latitude,
				"longitude": received.Longitude,
			})
		})
	})

	created, err := c.CreateIssue(context.Background(), models.NewIssue{
		Title:       "Broken light",
		Description: "Dark at night",
		Category:    models.Lighting,
		Latitude:    12.9716,
		Longitude:   77.5946,
		Status:      models.StatusReported,
		Address:     "Map location",
	})
	require.NoError(t, err)

	assert.Equal(t, "Map location", received.Address)
	assert.Equal(t, models.ID("42"), created.ID)
	pos, ok := created.Position()
	require.True(t, ok)
	assert.InDelta(t, 77.5946, pos.Lng, 1e-9)
}

func TestCreateIssueErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body func(c *gin.Context)
		want string
	}{
		{"backend message", func(c *gin.Context) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
		}, "Invalid category"},
		{"no message", func(c *gin.Context) {
			c.String(http.StatusBadGateway, "<html>bad gateway</html>")
		}, "Submission failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newBackend(t, func(r *gin.Engine) {
				r.POST("/api/issues", tt.body)
			})
			_, err := c.CreateIssue(context.Background(), models.NewIssue{Title: "x"})
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.want, apiErr.Message)
		})
	}
}
