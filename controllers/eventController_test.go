package controllers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ecobhandu-be/events"
	"ecobhandu-be/models"
)

func newStreamServer(t *testing.T, heartbeat time.Duration) (*events.Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := events.NewHub(8, zap.NewNop())
	r := gin.New()
	r.GET("/api/reports/events", NewEventController(hub, heartbeat, zap.NewNop()).Stream)

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func openStream(t *testing.T, ctx context.Context, url string) *bufio.Scanner {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/api/reports/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	return bufio.NewScanner(resp.Body)
}

func TestEventStream_DeliversEvents(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	hub, srv := newStreamServer(t, time.Minute)

	lines := openStream(t, ctx, srv.URL)
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	hub.Publish(ctx, models.ReportEvent{
		Type:     models.EventReportStatus,
		ReportID: "r1",
		Status:   models.InProgress,
		At:       time.Now(),
	})

	var event string
	for lines.Scan() {
		line := lines.Text()
		if name, ok := strings.CutPrefix(line, "event:"); ok {
			event = name
		}
		if data, ok := strings.CutPrefix(line, "data:"); ok {
			var ev models.ReportEvent
			require.NoError(t, json.Unmarshal([]byte(data), &ev))
			assert.Equal(t, string(models.EventReportStatus), event)
			assert.Equal(t, "r1", ev.ReportID)
			assert.Equal(t, models.InProgress, ev.Status)
			break
		}
	}
	require.NoError(t, lines.Err())

	hub.Close()
	for lines.Scan() {
	}
	assert.Eventually(t, func() bool { return hub.Subscribers() == 0 }, time.Second, 5*time.Millisecond)
}

func TestEventStream_Heartbeat(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, srv := newStreamServer(t, 10*time.Millisecond)

	lines := openStream(t, ctx, srv.URL)
	require.True(t, lines.Scan())
	assert.Equal(t, ": heartbeat", lines.Text())
}
