package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/project-feed/internal/domain/apperror"
	"github.com/oksasatya/project-feed/pkg/helpers"
	"github.com/oksasatya/project-feed/pkg/response"
)

// writeError renders err with the status of its kind. Unexpected errors are
// logged and reported with a generic message.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	var verr *apperror.ValidationError
	switch {
	case errors.As(err, &verr):
		response.Error(c, http.StatusUnprocessableEntity, "Validation failed, entered data is incorrect.", verr.Fields)
	case errors.Is(err, apperror.ErrValidation):
		response.Error(c, http.StatusUnprocessableEntity, "Validation failed, entered data is incorrect.", nil)
	case errors.Is(err, apperror.ErrMissingAsset):
		response.Error(c, http.StatusUnprocessableEntity, "No image provided.", nil)
	case errors.Is(err, apperror.ErrUnauthenticated):
		response.Error(c, http.StatusUnauthorized, "Not authenticated.", gin.H{"reason": err.Error()})
	case errors.Is(err, apperror.ErrNotAuthorized):
		response.Error(c, http.StatusForbidden, "Not authorized!", nil)
	case errors.Is(err, apperror.ErrNotFound):
		response.Error(c, http.StatusNotFound, "Could not find project.", nil)
	case errors.Is(err, apperror.ErrConflict):
		response.Error(c, http.StatusConflict, "Resource already exists.", nil)
	default:
		helpers.LogError(logger, "request failed", err, logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
		})
		response.Error(c, http.StatusInternalServerError, "An unexpected error occurred.", nil)
	}
}
