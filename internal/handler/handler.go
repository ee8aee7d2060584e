package handler

import (
	"net/http"

	"backend/pkg/apperror"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// respondError maps the service error taxonomy onto HTTP status codes.
// Anything outside the taxonomy is an infrastructure failure and surfaces
// as a 500.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if kind, ok := apperror.KindOf(err); ok {
		switch kind {
		case apperror.KindValidation:
			status = http.StatusBadRequest
		case apperror.KindAuthorization:
			status = http.StatusForbidden
		case apperror.KindConflict:
			status = http.StatusConflict
		case apperror.KindNotFound:
			status = http.StatusNotFound
		}
	}
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("Request failed")
	}
	c.JSON(status, response.Error(status, err.Error()))
}
