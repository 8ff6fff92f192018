// Package middleware carries the ambient request chain for the serving
// layer: correlation IDs, structured request logs, and Prometheus metrics.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const headerRequestID = "X-Request-ID"

// contextRequestID is the gin context key downstream handlers and the request
// logger read the correlation ID from.
const contextRequestID = "request_id"

// RequestID propagates a caller-supplied X-Request-ID, minting one when the
// caller sent none, so every prediction can be traced through the logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(contextRequestID, requestID)
		c.Header(headerRequestID, requestID)

		c.Next()
	}
}
