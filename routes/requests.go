package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"code-review-market/middleware"
	"code-review-market/models"
	"code-review-market/utils"
)

// RegisterRequestRoutes mounts the request lifecycle: posting, quoting,
// payment and the per-request review and message views.
func (h *Handler) RegisterRequestRoutes(r *gin.RouterGroup) {
	r.POST("", middleware.RequireRole(models.RoleBuilder), h.createRequest)
	r.GET("/mine", h.listMyRequests)
	r.GET("/open", middleware.RequireRole(models.RoleReviewer), h.listOpenRequests)
	r.GET("/:id", h.getRequest)
	r.PATCH("/:id", h.editRequest)
	r.POST("/:id/cancel", h.cancelRequest)

	r.GET("/:id/quotes", h.listQuotes)
	r.POST("/:id/quotes", middleware.RequireRole(models.RoleReviewer), h.submitQuote)
	r.POST("/:id/quotes/:quoteId/accept", h.acceptQuote)
	r.POST("/:id/pay", h.pay)

	r.GET("/:id/review", h.reviewForRequest)
	r.GET("/:id/messages", h.listMessages)
	r.POST("/:id/messages", h.postMessage)
}

func (h *Handler) createRequest(c *gin.Context) {
	var in models.ReviewRequestCreate
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	req, err := h.svc.Requests.Create(c.Request.Context(), actor(c), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": req})
}

func (h *Handler) listMyRequests(c *gin.Context) {
	views, err := h.svc.Requests.ListMine(c.Request.Context(), actor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

func (h *Handler) listOpenRequests(c *gin.Context) {
	limit, offset := utils.Pagination(c)
	views, err := h.svc.Requests.ListOpen(c.Request.Context(), actor(c), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": views, "limit": limit, "offset": offset})
}

func (h *Handler) getRequest(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	view, err := h.svc.Requests.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (h *Handler) editRequest(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var in models.ReviewRequestUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	req, err := h.svc.Requests.Edit(c.Request.Context(), actor(c), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": req})
}

func (h *Handler) cancelRequest(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	req, err := h.svc.Requests.Cancel(c.Request.Context(), actor(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": req})
}
