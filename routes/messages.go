package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"code-review-market/models"
	"code-review-market/services"
)

func (h *Handler) listMessages(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	msgs, err := h.svc.Messages.List(c.Request.Context(), actor(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": msgs})
}

// postMessage accepts either a JSON body or a multipart form whose optional
// "attachment" file is uploaded alongside the text.
func (h *Handler) postMessage(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}

	var (
		in  models.MessageCreate
		att *services.Attachment
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		in.Body = c.PostForm("body")
		if fh, err := c.FormFile("attachment"); err == nil {
			f, err := fh.Open()
			if err != nil {
				badRequest(c, "could not read attachment")
				return
			}
			defer f.Close()
			att = &services.Attachment{Name: fh.Filename, Reader: f}
		} else if err != http.ErrMissingFile {
			badRequest(c, err.Error())
			return
		}
	} else if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}

	msg, err := h.svc.Messages.Post(c.Request.Context(), actor(c), id, in.Body, att)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": msg})
}
