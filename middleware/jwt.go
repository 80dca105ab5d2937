package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/legalpt/legal-rag-be/types"
	"github.com/legalpt/legal-rag-be/utils"
)

const ClaimsContextKey = "user_claims"

// AdminAuth guards the ingestion and document management endpoints.
func AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.DataResponse{
				Status:  "error",
				Message: "Authorization header is required",
			})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.DataResponse{
				Status:  "error",
				Message: "Authorization header format must be Bearer {token}",
			})
			return
		}

		claims, err := utils.ParseUserToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.DataResponse{
				Status:  "error",
				Message: "Invalid token",
			})
			return
		}
		if claims.Role != types.USER_ROLE_ADMIN {
			c.AbortWithStatusJSON(http.StatusForbidden, types.DataResponse{
				Status:  "error",
				Message: "Admin role required",
			})
			return
		}

		c.Set(ClaimsContextKey, claims)
		c.Next()
	}
}
