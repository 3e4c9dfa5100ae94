package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/campus-meals-api/internal/middleware"
	"github.com/noah-isme/campus-meals-api/internal/models"
	appErrors "github.com/noah-isme/campus-meals-api/pkg/errors"
	"github.com/noah-isme/campus-meals-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// requireClaims writes a 401 and returns nil when the request is anonymous.
func requireClaims(c *gin.Context) *models.JWTClaims {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
	}
	return claims
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

// pathID returns the :id route parameter in canonical form. Ids that are not
// UUIDs cannot name a row, so they are answered with notFound.
func pathID(c *gin.Context, notFound *appErrors.Error) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, notFound)
		return "", false
	}
	return id.String(), true
}
