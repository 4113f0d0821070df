package handlers

import (
	"errors"
	"net/http"

	"diagram-hub/internal/managers"
	"diagram-hub/internal/middleware"
	"diagram-hub/internal/schemas"
	"diagram-hub/internal/utils"

	"github.com/gin-gonic/gin"
)

type DiagramHdl interface {
	CreateDiagram(c *gin.Context)
	GetDiagrams(c *gin.Context)
	GetDiagram(c *gin.Context)
	UpdateDiagram(c *gin.Context)
	DeleteDiagram(c *gin.Context)
	ImportSlugs(c *gin.Context)
}

type DiagramHandler struct {
	QueueManager managers.QueueMgr
}

func NewDiagramHandler(queueManager managers.QueueMgr) DiagramHdl {
	return &DiagramHandler{QueueManager: queueManager}
}

func (handler *DiagramHandler) send(c *gin.Context, pattern string, payload interface{}) {
	forward(c, handler.QueueManager, schemas.DiagramService, pattern, payload)
}

// CreateDiagram creates a diagram owned by the authenticated user.
func (handler *DiagramHandler) CreateDiagram(c *gin.Context) {
	claims, ok := claimsOrAbort(c)
	if !ok {
		return
	}
	req := middleware.Payload[schemas.CreateDiagramRequest](c)
	req.UserID = claims.UserID
	handler.send(c, schemas.PatternCreateDiagram, req)
}

func (handler *DiagramHandler) GetDiagrams(c *gin.Context) {
	handler.send(c, schemas.PatternGetDiagrams, middleware.Payload[schemas.GetDiagramsRequest](c))
}

func (handler *DiagramHandler) GetDiagram(c *gin.Context) {
	handler.send(c, schemas.PatternGetDiagramByID, &schemas.IDRequest{ID: c.Param(utils.IdParamKey)})
}

// UpdateDiagram applies a partial update to the diagram in the path.
func (handler *DiagramHandler) UpdateDiagram(c *gin.Context) {
	req := middleware.Payload[schemas.UpdateDiagramRequest](c)
	req.ID = c.Param(utils.IdParamKey)
	handler.send(c, schemas.PatternUpdateDiagram, req)
}

func (handler *DiagramHandler) DeleteDiagram(c *gin.Context) {
	handler.send(c, schemas.PatternDeleteDiagram, &schemas.IDRequest{ID: c.Param(utils.IdParamKey)})
}

// ImportSlugs parses the uploaded CSV or XLSX file and sends its rows to the diagram service.
func (handler *DiagramHandler) ImportSlugs(c *gin.Context) {
	header, err := c.FormFile(utils.FileFormKey)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			utils.WriteAndLogError(c, utils.ErrNoFileUploaded)
			return
		}
		utils.WriteAndLogError(c, schemas.NewBadRequest(schemas.BadRequestMessage).WithCause(err))
		return
	}

	rows, err := utils.ParseImportFile(header)
	if err != nil {
		utils.WriteAndLogError(c, err)
		return
	}

	handler.send(c, schemas.PatternImportSlugsDiagram, &schemas.ImportSlugsRequest{
		ID:   c.Param(utils.IdParamKey),
		Rows: rows,
	})
}
