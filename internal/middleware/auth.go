package middleware

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shawty-app/shawty/internal/model"
)

// SessionCookie is the cookie holding the signed session token
const SessionCookie = "shawty_session"

// userKey is the gin context key the session user is stored under
const userKey = "session_user"

// UserLoader resolves a user id from a session token to the full record
type UserLoader interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// SessionAuth verifies the session JWT cookie and loads the user behind it.
// API requests get a 401 JSON body; everything else is bounced to login.
type SessionAuth struct {
	secret []byte
	users  UserLoader
}

func NewSessionAuth(secret string, users UserLoader) *SessionAuth {
	return &SessionAuth{secret: []byte(secret), users: users}
}

func (a *SessionAuth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(SessionCookie)
		if err != nil {
			a.reject(c)
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(cookie, claims, func(token *jwt.Token) (interface{}, error) {
			return a.secret, nil
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			a.reject(c)
			return
		}

		user, err := a.users.GetUserByID(c.Request.Context(), claims.Subject)
		if err != nil {
			log.Printf("session user lookup failed: id=%s err=%v", claims.Subject, err)
			a.reject(c)
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

func (a *SessionAuth) reject(c *gin.Context) {
	if isAPIRequest(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "Unauthorized",
		})
		return
	}
	c.Redirect(http.StatusFound, "/auth/login")
	c.Abort()
}

func isAPIRequest(c *gin.Context) bool {
	return len(c.Request.URL.Path) >= 5 && c.Request.URL.Path[:5] == "/api/"
}

// SessionUser returns the authenticated user set by the middleware
func SessionUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok
}
