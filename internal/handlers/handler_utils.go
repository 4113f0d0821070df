package handlers

import (
	"errors"

	"diagram-hub/internal/managers"
	"diagram-hub/internal/rpc"
	"diagram-hub/internal/schemas"
	"diagram-hub/internal/utils"

	"github.com/gin-gonic/gin"
)

// forward sends payload to the service owning pattern and relays its envelope to the client.
// Transport failures become an internal error envelope.
func forward(c *gin.Context, queueMgr managers.QueueMgr, service, pattern string, payload interface{}) {
	ctx := utils.WithTraceId(c.Request.Context(), utils.TraceIdFromContext(c))

	reply, err := queueMgr.Send(ctx, service, pattern, payload)
	if err != nil {
		if errors.Is(err, rpc.ErrTimeout) {
			utils.LogMessageWithFields(c, "error", "No reply from "+service+" service for "+pattern)
		} else {
			utils.LogMessageWithFields(c, "error", "Forwarding "+pattern+" failed: "+err.Error())
		}
		reply = schemas.NewInternalReply()
	}

	utils.RelayEnvelope(c, reply)
}

// claimsOrAbort returns the caller's token claims, answering 401 when there are none.
func claimsOrAbort(c *gin.Context) (*managers.Claims, bool) {
	claims, ok := managers.ClaimsFromContext(c)
	if !ok || claims == nil {
		utils.WriteAndLogError(c, schemas.NewUnauthorized(schemas.UnauthorizedMessage))
		return nil, false
	}
	return claims, true
}
