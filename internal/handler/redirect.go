package handler

import (
	"errors"
	"fmt"
	"html"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shawty-app/shawty/internal/repository"
	"github.com/shawty-app/shawty/internal/service"
)

// verifiedCookie names the per-code verification marker
func verifiedCookie(code string) string {
	return "verified_" + code
}

// verifiedCookieTTL is how long a successful password check is remembered
const verifiedCookieTTL = 3600 // seconds

// Redirect handles GET /:code, the hot path. It resolves through the link
// cache, enforces the password gate, and answers before tracking runs.
func (h *Handler) Redirect(c *gin.Context) {
	code := c.Param("code")

	verified := false
	if v, err := c.Cookie(verifiedCookie(code)); err == nil && v == "true" {
		verified = true
	}

	visit := service.Visit{
		UserAgent: c.Request.UserAgent(),
		Referrer:  c.Request.Referer(),
		IP:        c.ClientIP(),
	}

	outcome, destination := h.resolver.Resolve(c.Request.Context(), code, verified, visit)
	switch outcome {
	case service.OutcomeChallenge:
		c.Redirect(http.StatusFound, "/"+code+"/verify")
	case service.OutcomeRedirect:
		c.Redirect(http.StatusFound, destination)
	default:
		c.String(http.StatusNotFound, "Not found")
	}
}

const verifyPage = `<!DOCTYPE html>
<html>
<head><title>Password required</title></head>
<body>
  <h1>This link is password protected</h1>
  %s
  <form method="POST" action="/%s/verify">
    <input type="password" name="password" placeholder="Password" autofocus required>
    <button type="submit">Unlock</button>
  </form>
</body>
</html>`

func renderVerifyPage(c *gin.Context, status int, code, errMsg string) {
	errHTML := ""
	if errMsg != "" {
		errHTML = "<p>" + html.EscapeString(errMsg) + "</p>"
	}
	page := fmt.Sprintf(verifyPage, errHTML, html.EscapeString(code))
	c.Data(status, "text/html; charset=utf-8", []byte(page))
}

// VerifyPage handles GET /:code/verify. Codes without a password bounce
// straight back to the redirect.
func (h *Handler) VerifyPage(c *gin.Context) {
	code := c.Param("code")

	gated, err := h.resolver.HasPassword(c.Request.Context(), code)
	if err != nil || !gated {
		c.Redirect(http.StatusFound, "/"+code)
		return
	}

	renderVerifyPage(c, http.StatusOK, code, "")
}

// VerifySubmit handles the password form. A match sets the scoped
// verification cookie and sends the visitor back through the redirect.
func (h *Handler) VerifySubmit(c *gin.Context) {
	code := c.Param("code")

	password := c.PostForm("password")
	if password == "" {
		renderVerifyPage(c, http.StatusBadRequest, code, "Password is required")
		return
	}

	ok, err := h.resolver.VerifyPassword(c.Request.Context(), code, password)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			c.String(http.StatusNotFound, "Not found")
			return
		}
		renderVerifyPage(c, http.StatusInternalServerError, code, "Something went wrong, try again")
		return
	}
	if !ok {
		renderVerifyPage(c, http.StatusUnauthorized, code, "Incorrect password")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(verifiedCookie(code), "true", verifiedCookieTTL, "/", "", h.secureCookies, true)
	c.Redirect(http.StatusFound, "/"+code)
}
