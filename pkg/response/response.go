package response

import (
	"log"
	"net/http"

	"github.com/earlypass/classpass-api/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserIDKey is the gin context key the auth middleware stores the
// authenticated user's ID under.
const UserIDKey = "user_id"

// GetUserID reads the authenticated user ID set by the auth middleware.
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	str, ok := raw.(string)
	if !ok {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	userID, err := uuid.Parse(str)
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	return userID, nil
}

// BadRequest writes the error envelope for a malformed body or parameter.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// ResponseError maps a service error onto its HTTP status via the apperror
// taxonomy and writes the standard error envelope. Unmapped errors are
// logged and surface as 500.
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	if code == http.StatusInternalServerError {
		log.Printf("[Internal Error]: %v", err)
	}

	c.JSON(code, gin.H{"error": err.Error()})
}
