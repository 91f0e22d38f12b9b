package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"code-review-market/services"
	"code-review-market/utils"
)

var kindStatus = map[services.ErrorKind]int{
	services.KindUnauthorized:     http.StatusUnauthorized,
	services.KindForbidden:        http.StatusForbidden,
	services.KindNotFound:         http.StatusNotFound,
	services.KindInvalidState:     http.StatusConflict,
	services.KindConflict:         http.StatusConflict,
	services.KindAlreadyProcessed: http.StatusConflict,
	services.KindInvalidInput:     http.StatusBadRequest,
}

// StatusFor maps a service error kind to its HTTP status. Unknown errors are 500.
func StatusFor(kind services.ErrorKind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError writes a domain error as-is and hides everything else behind
// a generic 500.
func (h *Handler) respondError(c *gin.Context, err error) {
	var e *services.Error
	if errors.As(err, &e) {
		utils.AbortWithError(c, StatusFor(e.Kind), string(e.Kind), e.Msg)
		return
	}
	h.log.Error("request failed",
		zap.Error(err),
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
	)
	_ = c.Error(err)
	utils.AbortWithError(c, http.StatusInternalServerError, "INTERNAL", "internal server error")
}

func badRequest(c *gin.Context, msg string) {
	utils.AbortWithError(c, http.StatusBadRequest, string(services.KindInvalidInput), msg)
}

func (h *Handler) idParam(c *gin.Context, name string) (uint, bool) {
	id, err := utils.ParseUintParam(c, name)
	if err != nil {
		badRequest(c, err.Error())
		return 0, false
	}
	return id, true
}
