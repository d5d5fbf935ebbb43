package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/project-feed/internal/realtime"
	"github.com/oksasatya/project-feed/pkg/response"
)

const streamEventName = "projects"

type EventsHandler struct {
	Hub       *realtime.Hub
	Logger    *logrus.Logger
	KeepAlive time.Duration
}

func NewEventsHandler(hub *realtime.Hub, logger *logrus.Logger) *EventsHandler {
	return &EventsHandler{Hub: hub, Logger: logger, KeepAlive: 15 * time.Second}
}

// Stream GET /events streams project mutations using Server-Sent Events.
// Each message is `event: projects` with data {action, project}.
func (h *EventsHandler) Stream(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Error(c, http.StatusInternalServerError, "streaming unsupported", nil)
		return
	}

	ctx := c.Request.Context()
	sub, err := h.Hub.Subscribe(ctx)
	if err != nil {
		response.Error(c, http.StatusServiceUnavailable, "live feed unavailable", nil)
		return
	}
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // nginx: disable buffering
	c.Status(http.StatusOK)

	fmt.Fprint(c.Writer, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()

		case ev, ok := <-sub.Events():
			if !ok {
				// hub stopped
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				if h.Logger != nil {
					h.Logger.WithError(err).WithField("action", string(ev.Action)).Warn("encode stream event failed")
				}
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", streamEventName, data)
			flusher.Flush()
		}
	}
}
