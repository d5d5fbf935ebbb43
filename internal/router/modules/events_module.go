package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/project-feed/internal/interface/http"
	"github.com/oksasatya/project-feed/internal/interface/middleware"
)

// EventsModule exposes the public live feed. The limiter caps how often an
// IP may (re)connect, not how long a stream stays open.
type EventsModule struct {
	Handler *handlers.EventsHandler
	Redis   *redis.Client
	PerMin  int
}

func NewEventsModule(h *handlers.EventsHandler, rdb *redis.Client, perMin int) *EventsModule {
	return &EventsModule{Handler: h, Redis: rdb, PerMin: perMin}
}

func (m *EventsModule) Register(rg *gin.RouterGroup) {
	rl := middleware.RateLimit(m.Redis, m.PerMin, time.Minute, middleware.KeyByIP(), nil)
	rg.GET("/events", rl, m.Handler.Stream)
}
