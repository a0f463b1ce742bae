package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mistriconnect/technician-backend/internal/database"
	"github.com/mistriconnect/technician-backend/internal/models"
)

// TechnicianContextKey is the key used to store the technician in Gin context
const TechnicianContextKey = "technician"

// TechnicianContext resolves the authenticated user's technician profile and
// stores it in the Gin context. Must run after AuthMiddleware.
func TechnicianContext(technicianRepo *database.TechnicianRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userCtx, exists := GetUserContext(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "User context not found",
			})
			c.Abort()
			return
		}

		tech, err := technicianRepo.GetByUserID(userCtx.UserID)
		if err != nil {
			if _, ok := err.(*models.NotFoundError); ok {
				c.JSON(http.StatusForbidden, gin.H{
					"error":   "not_technician",
					"message": "No technician profile found for this account",
					"code":    "NO_TECHNICIAN_PROFILE",
				})
			} else {
				logrus.WithError(err).Error("Failed to load technician for request")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error":   "internal_error",
					"message": "Failed to load technician profile",
				})
			}
			c.Abort()
			return
		}

		c.Set(TechnicianContextKey, tech)
		c.Next()
	}
}

// GetTechnician retrieves the technician stored by TechnicianContext
func GetTechnician(c *gin.Context) (*models.Technician, bool) {
	value, exists := c.Get(TechnicianContextKey)
	if !exists {
		return nil, false
	}
	tech, ok := value.(*models.Technician)
	return tech, ok
}

// RequireVerifiedTechnician rejects requests from technicians whose
// application has not been approved. Must run after TechnicianContext.
func RequireVerifiedTechnician() gin.HandlerFunc {
	return func(c *gin.Context) {
		tech, exists := GetTechnician(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Technician context not found",
			})
			c.Abort()
			return
		}

		if tech.VerificationStatus != models.VerificationVerified {
			c.JSON(http.StatusForbidden, gin.H{
				"error":               "not_verified",
				"message":             "Your technician profile is not verified yet. Please wait for admin approval.",
				"code":                "ACCOUNT_NOT_VERIFIED",
				"verification_status": tech.VerificationStatus,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
