package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"civicsync-client/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProvider(t *testing.T, setup func(r *gin.Engine)) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	setup(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestSearchSendsProviderParameters(t *testing.T) {
	var query map[string]string
	var agent string
	srv := newProvider(t, func(r *gin.Engine) {
		r.GET("/search", func(c *gin.Context) {
			query = map[string]string{
				"q":              c.Query("q"),
				"format":         c.Query("format"),
				"limit":          c.Query("limit"),
				"countrycodes":   c.Query("countrycodes"),
				"addressdetails": c.Query("addressdetails"),
				"namedetails":    c.Query("namedetails"),
			}
			agent = c.GetHeader("User-Agent")
			c.JSON(http.StatusOK, []gin.H{{
				"display_name": "MG Road, Bengaluru, Karnataka, India",
				"lat":          "12.9756",
				"lon":          "77.6050",
				"type":         "road",
				"class":        "highway",
				"address":      gin.H{"road": "MG Road", "city": "Bengaluru"},
			}})
		})
	})

	c := NewClient(srv.URL, WithCountryCodes("in"), WithUserAgent("test-agent"), WithRateLimit(0))
	places, err := c.Search(context.Background(), "MG Road")
	require.NoError(t, err)
	require.Len(t, places, 1)

	assert.Equal(t, map[string]string{
		"q":              "MG Road",
		"format":         "json",
		"limit":          "15",
		"countrycodes":   "in",
		"addressdetails": "1",
		"namedetails":    "1",
	}, query)
	assert.Equal(t, "test-agent", agent)
	assert.Equal(t, "MG Road", places[0].Address.Road)
	pt, ok := places[0].Position()
	assert.True(t, ok)
	assert.InDelta(t, 12.9756, pt.Lat, 1e-9)
}

func TestSearchProviderError(t *testing.T) {
	srv := newProvider(t, func(r *gin.Engine) {
		r.GET("/search", func(c *gin.Context) {
			c.String(http.StatusServiceUnavailable, "busy")
		})
	})

	_, err := NewClient(srv.URL, WithRateLimit(0)).Search(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestReverse(t *testing.T) {
	srv := newProvider(t, func(r *gin.Engine) {
		r.GET("/reverse", func(c *gin.Context) {
			if c.Query("lat") == "0" {
				c.JSON(http.StatusOK, gin.H{"error": "Unable to geocode"})
				return
			}
			assert.Equal(t, "18", c.Query("zoom"))
			assert.Equal(t, "12.97", c.Query("lat"))
			assert.Equal(t, "77.59", c.Query("lon"))
			c.JSON(http.StatusOK, gin.H{
				"display_name": "Cubbon Park, Bengaluru",
				"address":      gin.H{"suburb": "Sampangi Rama Nagar", "city": "Bengaluru"},
			})
		})
	})
	c := NewClient(srv.URL, WithRateLimit(0))

	place, err := c.Reverse(context.Background(), 12.97, 77.59)
	require.NoError(t, err)
	assert.Equal(t, "Cubbon Park, Bengaluru", place.DisplayName)

	_, err = c.Reverse(context.Background(), 0, 0)
	assert.ErrorIs(t, err, ErrNoAddress)
}

func TestShortAddress(t *testing.T) {
	tests := []struct {
		name string
		addr models.Address
		want string
		ok   bool
	}{
		{"road with number and suburb", models.Address{HouseNumber: "12", Road: "MG Road", Suburb: "Ashok Nagar"}, "12, MG Road, Ashok Nagar", true},
		{"road with neighbourhood", models.Address{Road: "MG Road", Neighbourhood: "Shanthala Nagar"}, "MG Road, Shanthala Nagar", true},
		{"suburb and city", models.Address{Suburb: "Indiranagar", City: "Bengaluru"}, "Indiranagar, Bengaluru", true},
		{"town only", models.Address{Town: "Hosur"}, "Hosur", true},
		{"village only", models.Address{Village: "Nandi"}, "Nandi", true},
		{"nothing usable", models.Address{State: "Karnataka"}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ShortAddress(tt.addr)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
