package middleware

import "github.com/gin-gonic/gin"

// ErrorDetailKey marks requests whose error responses may carry internal detail
const ErrorDetailKey = "expose_error_detail"

// ErrorDetail flags every request with whether error and stack fields may be returned.
func ErrorDetail(expose bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ErrorDetailKey, expose)
		c.Next()
	}
}

// ExposeErrorDetail reports the flag set by ErrorDetail. Unset means false.
func ExposeErrorDetail(c *gin.Context) bool {
	return c.GetBool(ErrorDetailKey)
}
