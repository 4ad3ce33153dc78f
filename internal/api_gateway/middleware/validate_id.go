package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rice-supply-chain-api/internal/identity"
)

// ValidateIDParam rejects requests whose path parameter is not a well-formed record id
func ValidateIDParam(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value := c.Param(param)
		if value == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, errorEnvelope(c, param+" parameter is required"))
			return
		}
		if !identity.IsValid(value) {
			c.AbortWithStatusJSON(http.StatusBadRequest, errorEnvelope(c, "Invalid "+param+" format"))
			return
		}
		c.Next()
	}
}
