package handlers

import (
	"diagram-hub/internal/managers"
	"diagram-hub/internal/middleware"
	"diagram-hub/internal/schemas"

	"github.com/gin-gonic/gin"
)

type ActivityLogHdl interface {
	GetAllActivityLog(c *gin.Context)
	GetMostVisitedAPI(c *gin.Context)
	GetMostVisitedUser(c *gin.Context)
}

type ActivityLogHandler struct {
	QueueManager managers.QueueMgr
}

func NewActivityLogHandler(queueManager managers.QueueMgr) ActivityLogHdl {
	return &ActivityLogHandler{QueueManager: queueManager}
}

func (handler *ActivityLogHandler) send(c *gin.Context, pattern string, payload interface{}) {
	forward(c, handler.QueueManager, schemas.ActivityLogService, pattern, payload)
}

func (handler *ActivityLogHandler) GetAllActivityLog(c *gin.Context) {
	handler.send(c, schemas.PatternGetAllActivities, middleware.Payload[schemas.GetActivityLogsRequest](c))
}

func (handler *ActivityLogHandler) GetMostVisitedAPI(c *gin.Context) {
	handler.send(c, schemas.PatternGetMostVisitedAPI, middleware.Payload[schemas.MostVisitedRequest](c))
}

func (handler *ActivityLogHandler) GetMostVisitedUser(c *gin.Context) {
	handler.send(c, schemas.PatternGetMostVisitedUser, middleware.Payload[schemas.MostVisitedRequest](c))
}
