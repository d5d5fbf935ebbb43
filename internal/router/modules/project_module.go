package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/project-feed/internal/interface/http"
	"github.com/oksasatya/project-feed/internal/interface/middleware"
	"github.com/oksasatya/project-feed/pkg/helpers"
)

// ProjectModule wires the project feed. Every route requires a credential.
// Search is only mounted when a search handler is configured.
type ProjectModule struct {
	Handler *handlers.ProjectHandler
	Search  *handlers.SearchHandler
	JWT     *helpers.JWTManager
	Redis   *redis.Client
	PerMin  int
}

func NewProjectModule(h *handlers.ProjectHandler, search *handlers.SearchHandler, jwt *helpers.JWTManager, rdb *redis.Client, perMin int) *ProjectModule {
	return &ProjectModule{Handler: h, Search: search, JWT: jwt, Redis: rdb, PerMin: perMin}
}

func (m *ProjectModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/projects")
	auth.Use(middleware.Auth(m.Redis, m.JWT))
	auth.Use(middleware.RateLimit(m.Redis, m.PerMin, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("/projects", m.Handler.List)
		auth.POST("/project", m.Handler.Create)
		auth.GET("/project/:projectId", m.Handler.Get)
		auth.PUT("/project/:projectId", m.Handler.Update)
		auth.DELETE("/project/:projectId", m.Handler.Delete)
		if m.Search != nil {
			auth.GET("/search", m.Search.Search)
		}
	}
}
