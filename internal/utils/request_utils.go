package utils

import (
	"net/http"

	"diagram-hub/internal/schemas"

	"github.com/gin-gonic/gin"
)

// WriteAndLogResponse encodes the response object to JSON and writes it to the HTTP response.
func WriteAndLogResponse(ctx *gin.Context, response interface{}, statusCode int) {
	LogMessageWithFields(ctx, "info", "Returning response")
	ctx.JSON(statusCode, response)
}

// WriteAndLogError logs the provided error and answers with an error envelope for it.
// The message is kept on the context for the activity logger.
func WriteAndLogError(c *gin.Context, err error) {
	envelope := schemas.Failure(err)
	LogMessageWithFields(c, "error", "Error occurred: "+err.Error())
	LogMessageWithFields(c, "error", "Returning "+string(envelope.Errors.Kind)+" / "+envelope.Message)
	c.Set(ErrorMessageKey.String(), envelope.Message)
	c.AbortWithStatusJSON(envelope.StatusCode, envelope)
}

// RelayEnvelope writes a service reply to the client using the reply's own status code.
func RelayEnvelope(c *gin.Context, reply *schemas.ReplyEnvelope) {
	if reply.StatusCode == 0 {
		reply.StatusCode = http.StatusOK
	}
	if reply.StatusCode >= http.StatusBadRequest {
		c.Set(ErrorMessageKey.String(), reply.Message)
		LogMessageWithFields(c, "warn", "Service replied "+reply.Message)
	}
	WriteAndLogResponse(c, reply, reply.StatusCode)
}
