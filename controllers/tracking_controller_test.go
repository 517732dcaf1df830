// File: /controllers/tracking_controller_test.go
package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squadrun-api/services"
)

func newIngestRouter(t *testing.T) (*gin.Engine, *services.DeviceFeed) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	feed := services.NewDeviceFeed()
	tc := NewTrackingController(nil, nil, feed, nil)

	router := gin.New()
	router.POST("/tracking/samples", tc.IngestSample)
	return router, feed
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIngestSampleAcceptsZeroCoordinates(t *testing.T) {
	router, feed := newIngestRouter(t)
	require.NoError(t, feed.StartUpdating())

	// Gulf of Guinea: both components legitimately zero.
	w := postJSON(router, "/tracking/samples", `{"latitude": 0, "longitude": 0, "speed": 2.5}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	sample := <-feed.Updates()
	assert.Equal(t, 0.0, sample.Latitude)
	assert.Equal(t, 0.0, sample.Longitude)
	assert.Equal(t, 2.5, sample.Speed)
}

func TestIngestSampleRejectsMissingCoordinates(t *testing.T) {
	router, feed := newIngestRouter(t)
	require.NoError(t, feed.StartUpdating())

	w := postJSON(router, "/tracking/samples", `{"longitude": 19.0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(router, "/tracking/samples", `{"latitude": 47.5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngestSampleRejectsOutOfRangeCoordinates(t *testing.T) {
	router, feed := newIngestRouter(t)
	require.NoError(t, feed.StartUpdating())

	w := postJSON(router, "/tracking/samples", `{"latitude": 91, "longitude": 0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(router, "/tracking/samples", `{"latitude": 0, "longitude": -181}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngestSampleConflictWhileNotTracking(t *testing.T) {
	router, _ := newIngestRouter(t)

	w := postJSON(router, "/tracking/samples", `{"latitude": 47.5, "longitude": 19.0}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}
