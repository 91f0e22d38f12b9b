package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"code-review-market/models"
)

func (h *Handler) listQuotes(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	quotes, err := h.svc.Quotes.ListForRequest(c.Request.Context(), actor(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": quotes})
}

func (h *Handler) submitQuote(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var in models.QuoteCreate
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	quote, err := h.svc.Quotes.Submit(c.Request.Context(), actor(c), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": quote})
}

func (h *Handler) acceptQuote(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	quoteID, ok := h.idParam(c, "quoteId")
	if !ok {
		return
	}
	quote, err := h.svc.Quotes.Accept(c.Request.Context(), actor(c), id, quoteID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": quote})
}

func (h *Handler) pay(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	res, err := h.svc.Payments.Pay(c.Request.Context(), actor(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": res})
}
