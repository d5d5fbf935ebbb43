package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/project-feed/internal/interface/http"
	"github.com/oksasatya/project-feed/internal/interface/middleware"
)

// AuthModule wires signup and the token endpoints.
// Public: POST /auth/signup, /auth/login, /auth/refresh, /auth/logout
type AuthModule struct {
	Handler *handlers.AuthHandler
	Redis   *redis.Client
	PerMin  int
}

func NewAuthModule(h *handlers.AuthHandler, rdb *redis.Client, perMin int) *AuthModule {
	return &AuthModule{Handler: h, Redis: rdb, PerMin: perMin}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	limiter := middleware.RateLimit(m.Redis, m.PerMin, time.Minute, middleware.KeyByIPAndPath(), nil)
	refreshLimiter := middleware.RateLimit(m.Redis, 6*m.PerMin, time.Minute, middleware.KeyByIP(), nil)

	auth := rg.Group("/auth")
	auth.POST("/signup", limiter, m.Handler.Signup)
	auth.POST("/login", limiter, m.Handler.Login)
	auth.POST("/refresh", refreshLimiter, m.Handler.Refresh)
	auth.POST("/logout", m.Handler.Logout)
}
