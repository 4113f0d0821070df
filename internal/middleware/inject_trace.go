package middleware

import (
	"diagram-hub/internal/utils"

	"github.com/gin-gonic/gin"
)

func InjectTrace() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := utils.GenerateTraceId()
		c.Set(utils.TraceIdKey.String(), traceId)
		c.Header(utils.TraceIdHeader, traceId)
		c.Next()
	}
}
