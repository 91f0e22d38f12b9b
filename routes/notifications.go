package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"code-review-market/utils"
)

func (h *Handler) RegisterNotificationRoutes(r *gin.RouterGroup) {
	r.GET("", h.listNotifications)
	r.GET("/unread-count", h.unreadCount)
	r.POST("/read-all", h.markAllRead)
	r.POST("/:id/read", h.markRead)
}

func (h *Handler) listNotifications(c *gin.Context) {
	limit, offset := utils.Pagination(c)
	unreadOnly := c.Query("unread") == "true"
	items, err := h.svc.Notifications.List(c.Request.Context(), actor(c), unreadOnly, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items, "limit": limit, "offset": offset})
}

func (h *Handler) unreadCount(c *gin.Context) {
	n, err := h.svc.Notifications.UnreadCount(c.Request.Context(), actor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"unread": n}})
}

func (h *Handler) markRead(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Notifications.MarkRead(c.Request.Context(), actor(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) markAllRead(c *gin.Context) {
	n, err := h.svc.Notifications.MarkAllRead(c.Request.Context(), actor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"updated": n}})
}
