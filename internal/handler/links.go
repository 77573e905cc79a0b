package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shawty-app/shawty/internal/middleware"
	"github.com/shawty-app/shawty/internal/model"
	"github.com/shawty-app/shawty/internal/repository"
	"github.com/shawty-app/shawty/internal/service"
)

// CreateLink handles POST /api/links
func (h *Handler) CreateLink(c *gin.Context) {
	user, ok := middleware.SessionUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req model.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	response, err := h.links.CreateLink(c.Request.Context(), user, &req)
	if err != nil {
		var vErr *service.ValidationError
		switch {
		case errors.As(err, &vErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Reason})
		case errors.Is(err, service.ErrSelfReference):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot create shortlinks that point to this domain"})
		case errors.Is(err, repository.ErrSlugTaken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "This slug is already taken"})
		default:
			log.Printf("create link failed: user=%s err=%v", user.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create short link"})
		}
		return
	}

	c.JSON(http.StatusCreated, response)
}

// ListLinks handles GET /api/links?page=&limit=
func (h *Handler) ListLinks(c *gin.Context) {
	user, ok := middleware.SessionUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	response, err := h.links.ListLinks(c.Request.Context(), user.ID, page, limit)
	if err != nil {
		log.Printf("list links failed: user=%s err=%v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch links"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// UpdateLink handles PATCH /api/links/:id
func (h *Handler) UpdateLink(c *gin.Context) {
	user, ok := middleware.SessionUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req model.UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	link, err := h.links.UpdateLink(c.Request.Context(), user, c.Param("id"), &req)
	if err != nil {
		var vErr *service.ValidationError
		switch {
		case errors.Is(err, repository.ErrLinkNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
		case errors.As(err, &vErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Reason})
		case errors.Is(err, service.ErrSelfReference):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot create shortlinks that point to this domain"})
		default:
			log.Printf("update link failed: user=%s link=%s err=%v", user.ID, c.Param("id"), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update link"})
		}
		return
	}

	c.JSON(http.StatusOK, link)
}

// DeleteLink handles DELETE /api/links/:id
func (h *Handler) DeleteLink(c *gin.Context) {
	user, ok := middleware.SessionUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.links.DeleteLink(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
			return
		}
		log.Printf("delete link failed: user=%s link=%s err=%v", user.ID, c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete link"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// LinkAnalytics handles GET /api/links/:id/analytics
func (h *Handler) LinkAnalytics(c *gin.Context) {
	user, ok := middleware.SessionUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	link, analytics, err := h.analytics.GetLinkAnalytics(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
			return
		}
		log.Printf("link analytics failed: user=%s link=%s err=%v", user.ID, c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load analytics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"link":      link,
		"analytics": analytics,
	})
}

// Leaderboard handles GET /api/leaderboard, the public top list
func (h *Handler) Leaderboard(c *gin.Context) {
	entries, err := h.links.Leaderboard(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load leaderboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"links": entries})
}
