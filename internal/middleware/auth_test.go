package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shawty-app/shawty/internal/model"
	"github.com/shawty-app/shawty/internal/repository"
)

const testSecret = "test-session-secret"

type stubUserLoader struct {
	users map[string]*model.User
}

func (s *stubUserLoader) GetUserByID(_ context.Context, id string) (*model.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func signToken(t *testing.T, secret, subject string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}
	return signed
}

func newAuthRouter(loader UserLoader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := NewSessionAuth(testSecret, loader)

	router := gin.New()
	protected := func(c *gin.Context) {
		user, ok := SessionUser(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "user missing from context"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": user.ID})
	}
	router.GET("/api/links", auth.Middleware(), protected)
	router.GET("/dashboard", auth.Middleware(), protected)
	return router
}

func TestSessionAuthValidToken(t *testing.T) {
	loader := &stubUserLoader{users: map[string]*model.User{
		"u1": {ID: "u1", Email: "orpheus@hackclub.com"},
	}}
	router := newAuthRouter(loader)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/links", nil)
	req.AddCookie(&http.Cookie{
		Name:  SessionCookie,
		Value: signToken(t, testSecret, "u1", time.Now().Add(time.Hour)),
	})
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
}

func TestSessionAuthMissingCookie(t *testing.T) {
	router := newAuthRouter(&stubUserLoader{})

	t.Run("api request gets 401", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/links", nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
	})

	t.Run("browser request gets redirected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusFound {
			t.Fatalf("status = %d, want 302", w.Code)
		}
		if loc := w.Header().Get("Location"); loc != "/auth/login" {
			t.Errorf("Location = %q", loc)
		}
	})
}

func TestSessionAuthRejectsBadTokens(t *testing.T) {
	loader := &stubUserLoader{users: map[string]*model.User{
		"u1": {ID: "u1"},
	}}
	router := newAuthRouter(loader)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-jwt"},
		{name: "wrong secret", token: signToken(t, "other-secret", "u1", time.Now().Add(time.Hour))},
		{name: "expired", token: signToken(t, testSecret, "u1", time.Now().Add(-time.Hour))},
		{name: "empty subject", token: signToken(t, testSecret, "", time.Now().Add(time.Hour))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/links", nil)
			req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.token})
			router.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
		})
	}
}

func TestSessionAuthUnknownUser(t *testing.T) {
	router := newAuthRouter(&stubUserLoader{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/links", nil)
	req.AddCookie(&http.Cookie{
		Name:  SessionCookie,
		Value: signToken(t, testSecret, "ghost", time.Now().Add(time.Hour)),
	})
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 when the user no longer exists", w.Code)
	}
}
