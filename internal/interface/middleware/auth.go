package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/project-feed/internal/domain/apperror"
	"github.com/oksasatya/project-feed/pkg/helpers"
	"github.com/oksasatya/project-feed/pkg/response"
)

const CtxUserIDKey = "userID"

// Auth resolves the access token to a user id. The token is read from the
// Authorization bearer header, then from the access_token cookie. When rdb
// is set the token's session must still be the user's active session.
// It sets userID in the Gin context on success.
func Auth(rdb *redis.Client, jwtm *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abortUnauthenticated(c, apperror.ErrMissingCredential)
			return
		}
		claims, err := jwtm.ParseAccessToken(token)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortUnauthenticated(c, apperror.ErrExpiredCredential)
				return
			}
			abortUnauthenticated(c, apperror.ErrInvalidCredential)
			return
		}

		if rdb != nil {
			sid, err := rdb.HGet(c.Request.Context(), helpers.SessionKey(claims.UserID), "sid").Result()
			if err != nil || sid != claims.SessionID {
				abortUnauthenticated(c, apperror.ErrInvalidCredential)
				return
			}
		}

		c.Set(CtxUserIDKey, claims.UserID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if h := strings.TrimSpace(c.GetHeader("Authorization")); h != "" {
		if parts := strings.SplitN(h, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if tok, err := c.Cookie(helpers.AccessCookie); err == nil {
		return tok
	}
	return ""
}

func abortUnauthenticated(c *gin.Context, err error) {
	response.Abort(c, http.StatusUnauthorized, "Not authenticated.", gin.H{"reason": err.Error()})
}
