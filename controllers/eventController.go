package controllers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ecobhandu-be/events"
	"ecobhandu-be/logger"
	"ecobhandu-be/metrics"
)

type EventController struct {
	hub       *events.Hub
	heartbeat time.Duration
	log       *zap.Logger
}

func NewEventController(hub *events.Hub, heartbeat time.Duration, log *zap.Logger) *EventController {
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	return &EventController{hub: hub, heartbeat: heartbeat, log: log}
}

// Stream pushes report events to the client as server-sent events until the
// client disconnects. A comment line is written every heartbeat interval.
func (ec *EventController) Stream(c *gin.Context) {
	// The server write timeout would otherwise cut the stream.
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	sub := ec.hub.Subscribe()
	defer sub.Close()
	metrics.SubscriberConnected()
	defer metrics.SubscriberDisconnected()

	log := logger.FromGin(c, ec.log)
	log.Debug("event subscriber connected")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(ec.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Type), ev)
			return true
		case <-ticker.C:
			_, err := fmt.Fprint(w, ": heartbeat\n\n")
			return err == nil
		}
	})

	log.Debug("event subscriber disconnected")
}
