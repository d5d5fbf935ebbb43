package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/project-feed/internal/application"
	"github.com/oksasatya/project-feed/pkg/helpers"
	"github.com/oksasatya/project-feed/pkg/response"
	"github.com/oksasatya/project-feed/pkg/validation"
)

type AuthHandler struct {
	Svc     *application.AuthService
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewAuthHandler(svc *application.AuthService, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

// Signup POST /auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req application.SignupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.Signup(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, "User created!", gin.H{"userId": u.ID})
}

// Login POST /auth/login. The access token is returned in the body for
// bearer use and both tokens are also set as cookies.
func (h *AuthHandler) Login(c *gin.Context) {
	var req application.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, pair, err := h.Svc.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, "login successful", gin.H{
		"token":             pair.AccessToken,
		"userId":            res.UserID,
		"name":              res.Name,
		"access_expires_at": pair.AccessTokenExpiry,
	})
}

// Refresh POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie(helpers.RefreshCookie)
	if err != nil || refresh == "" {
		response.Error(c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	pair, userID, err := h.Svc.Refresh(c.Request.Context(), refresh)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, "token refreshed", gin.H{
		"token":             pair.AccessToken,
		"userId":            userID,
		"access_expires_at": pair.AccessTokenExpiry,
	})
}

// Logout POST /auth/logout. A valid refresh cookie also ends the server
// session; the cookies are cleared either way.
func (h *AuthHandler) Logout(c *gin.Context) {
	if refresh, err := c.Cookie(helpers.RefreshCookie); err == nil && refresh != "" {
		if claims, err := h.Svc.JWT.ParseRefreshToken(refresh); err == nil {
			if err := h.Svc.Logout(c.Request.Context(), claims.UserID); err != nil && h.Logger != nil {
				h.Logger.WithError(err).WithField("user_id", claims.UserID).Warn("drop session failed")
			}
		}
	}
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, "logged out", nil)
}
