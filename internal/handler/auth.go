package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shawty-app/shawty/internal/middleware"
	"github.com/shawty-app/shawty/internal/model"
	"github.com/shawty-app/shawty/internal/service"
)

const oauthStateCookie = "oauthstate"

// AuthHandler owns the OAuth login routes and session cookies
type AuthHandler struct {
	auth         *service.AuthService
	isProduction bool
}

func NewAuthHandler(auth *service.AuthService, isProduction bool) *AuthHandler {
	return &AuthHandler{auth: auth, isProduction: isProduction}
}

// Login handles GET /auth/login, redirecting to the HackClub authorize page
func (h *AuthHandler) Login(c *gin.Context) {
	state := h.setStateCookie(c)
	c.Redirect(http.StatusFound, h.auth.HackClubLoginURL(state))
}

// GitHubLogin handles GET /auth/github
func (h *AuthHandler) GitHubLogin(c *gin.Context) {
	state := h.setStateCookie(c)
	c.Redirect(http.StatusFound, h.auth.GitHubLoginURL(state))
}

// Callback handles GET /auth/callback for the HackClub flow
func (h *AuthHandler) Callback(c *gin.Context) {
	h.handleCallback(c, h.auth.HandleHackClubCallback)
}

// GitHubCallback handles GET /auth/github/callback
func (h *AuthHandler) GitHubCallback(c *gin.Context) {
	h.handleCallback(c, h.auth.HandleGitHubCallback)
}

func (h *AuthHandler) handleCallback(c *gin.Context, exchange func(ctx context.Context, code string) (*model.User, error)) {
	if !h.checkState(c) {
		log.Printf("oauth callback rejected: invalid state, ip=%s", c.ClientIP())
		c.Redirect(http.StatusFound, "/?error=invalid_state")
		return
	}

	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusFound, "/?error=no_code")
		return
	}

	user, err := exchange(c.Request.Context(), code)
	if err != nil {
		log.Printf("oauth callback failed: ip=%s err=%v", c.ClientIP(), err)
		c.Redirect(http.StatusFound, "/?error=oauth_failed")
		return
	}

	h.finishLogin(c, user.ID)
}

// Logout handles GET /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.isProduction, true)
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) setStateCookie(c *gin.Context) string {
	b := make([]byte, 16)
	rand.Read(b)
	state := base64.URLEncoding.EncodeToString(b)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, 20*60, "/", "", h.isProduction, true)
	return state
}

func (h *AuthHandler) checkState(c *gin.Context) bool {
	state, err := c.Cookie(oauthStateCookie)
	if err != nil {
		return false
	}
	return c.Query("state") == state
}

func (h *AuthHandler) finishLogin(c *gin.Context, userID string) {
	token, err := h.auth.IssueSession(userID)
	if err != nil {
		log.Printf("session issue failed: user=%s err=%v", userID, err)
		c.Redirect(http.StatusFound, "/?error=oauth_failed")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, int(h.auth.SessionTTL().Seconds()), "/", "", h.isProduction, true)
	c.Redirect(http.StatusFound, "/")
}
