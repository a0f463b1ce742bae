package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mistriconnect/technician-backend/internal/models"
)

// respondError maps the workflow error taxonomy onto HTTP statuses:
// validation 400, conflict 409, not found 404, upstream failure 502,
// everything else 500.
func respondError(c *gin.Context, err error) {
	var validation *models.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": validation.Message,
			"field":   validation.Field,
		})
		return
	}

	var conflict *models.ConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "conflict",
			"message": conflict.Message,
			"code":    conflict.Code,
		})
		return
	}

	var notFound *models.NotFoundError
	if errors.As(err, &notFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": notFound.Error(),
		})
		return
	}

	var upstream *models.UpstreamError
	if errors.As(err, &upstream) {
		logrus.WithError(upstream.Err).WithField("service", upstream.Service).Error("Upstream service failed")
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "upstream_failure",
			"message": upstream.Service + " is unavailable, please retry",
		})
		return
	}

	logrus.WithError(err).Error("Unhandled error in request")
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "internal_error",
		"message": "An unexpected error occurred",
	})
}
