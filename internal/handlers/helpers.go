package handlers

import (
	"github.com/gin-gonic/gin"
)

func getStringFromCtx(c *gin.Context, key string) string {
	v, ok := c.Get(key)
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// getTenant returns the authenticated company and user ids the auth layer
// put into the request context.
func getTenant(c *gin.Context) (companyID, userID string) {
	return getStringFromCtx(c, "company_id"), getStringFromCtx(c, "user_id")
}
