package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"code-review-market/middleware"
	"code-review-market/models"
)

func (h *Handler) RegisterReviewRoutes(r *gin.RouterGroup) {
	reviews := r.Group("/reviews")
	{
		reviews.GET("/:id", h.getReview)
		reviews.PUT("/:id/draft", h.saveDraft)
		reviews.POST("/:id/submit", h.submitReview)
		reviews.POST("/:id/rating", middleware.RequireRole(models.RoleBuilder), h.rateReview)
	}
	r.GET("/reviewers/:id/profile", h.reviewerProfile)
}

func (h *Handler) reviewForRequest(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	review, err := h.svc.Reviews.ForRequest(c.Request.Context(), actor(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": review})
}

func (h *Handler) getReview(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	review, err := h.svc.Reviews.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": review})
}

func (h *Handler) saveDraft(c *gin.Context) {
	h.writeReview(c, false)
}

func (h *Handler) submitReview(c *gin.Context) {
	h.writeReview(c, true)
}

func (h *Handler) writeReview(c *gin.Context, submit bool) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var in models.ReviewUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}

	var (
		review *models.Review
		err    error
	)
	if submit {
		review, err = h.svc.Reviews.Submit(c.Request.Context(), actor(c), id, in)
	} else {
		review, err = h.svc.Reviews.SaveDraft(c.Request.Context(), actor(c), id, in)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": review})
}

func (h *Handler) rateReview(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var in models.RatingCreate
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	rating, err := h.svc.Ratings.Rate(c.Request.Context(), actor(c), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": rating})
}

func (h *Handler) reviewerProfile(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	view, err := h.svc.Ratings.ProfileFor(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}
