package middlewares

import "github.com/gin-gonic/gin"

// abortWithError stops the chain with the same error envelope the handlers use.
func abortWithError(c *gin.Context, status int, code, message string) {
	reqID, _ := c.Get(CtxRequestID)
	rid, _ := reqID.(string)

	body := gin.H{
		"code":    code,
		"message": message,
	}
	if rid != "" {
		body["requestId"] = rid
	}

	c.AbortWithStatusJSON(status, gin.H{"error": body})
}
