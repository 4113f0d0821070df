// Package diagram implements the diagram service.
package diagram

import (
	"context"
	"net/http"
	"strings"

	"diagram-hub/internal/pagination"
	"diagram-hub/internal/repository"
	"diagram-hub/internal/rpc"
	"diagram-hub/internal/schemas"
	"diagram-hub/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	diagramNotFound   = "Diagram not found"
	invalidDiagramID  = "Invalid Diagram ID format"
	slugColumn        = "slugs"
	msgDuplicateSlugs = "Slugs must be unique within the diagram."
)

type Service struct {
	diagrams repository.Store[schemas.Diagram]
}

func NewService(diagrams repository.Store[schemas.Diagram]) *Service {
	return &Service{diagrams: diagrams}
}

// Register binds the diagram message patterns to the service.
func (s *Service) Register(srv *rpc.Server) {
	rpc.Handle(srv, schemas.PatternCreateDiagram, s.Create)
	rpc.Handle(srv, schemas.PatternGetDiagrams, s.FindAll)
	rpc.Handle(srv, schemas.PatternGetDiagramByID, s.FindOne)
	rpc.Handle(srv, schemas.PatternUpdateDiagram, s.Update)
	rpc.Handle(srv, schemas.PatternDeleteDiagram, s.Remove)
	rpc.Handle(srv, schemas.PatternImportSlugsDiagram, s.ImportSlugs)
}

// creatorLookup joins the owning user (stored as a hex id) onto each diagram.
func creatorLookup() []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: schemas.UsersCollection},
			{Key: "let", Value: bson.M{"createdBy": "$createdBy"}},
			{Key: "pipeline", Value: bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{bson.M{"$toString": "$_id"}, "$$createdBy"}}}},
				bson.M{"$project": bson.M{"_id": 1, "name": 1, "email": 1, "phoneNumber": 1}},
			}},
			{Key: "as", Value: "creator"},
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$creator", "preserveNullAndEmptyArrays": true}}},
	}
}

// diagramInput is the subset of fields checked before a diagram is written.
type diagramInput struct {
	name      string
	url       string
	shortCode string
	slugs     []string
	excludeID *primitive.ObjectID
}

// validateDiagramInput rejects duplicate slugs and any name, url or short code already used by
// another diagram. Conflicts are reported in the order name, url, short code.
func (s *Service) validateDiagramInput(ctx context.Context, input diagramInput) error {
	if hasDuplicates(input.slugs) {
		return schemas.NewValidation(msgDuplicateSlugs, schemas.FieldError{Field: "slugs", Message: msgDuplicateSlugs})
	}

	or := bson.A{}
	if input.name != "" {
		or = append(or, bson.M{"name": input.name})
	}
	if input.url != "" {
		or = append(or, bson.M{"url": input.url})
	}
	if input.shortCode != "" {
		or = append(or, bson.M{"shortCode": input.shortCode})
	}
	if len(or) == 0 {
		return nil
	}

	query := bson.M{"$or": or}
	if input.excludeID != nil {
		query["_id"] = bson.M{"$ne": *input.excludeID}
	}

	existing, err := s.diagrams.FindOne(ctx, query, repository.SuppressNotFound())
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	switch {
	case input.name != "" && existing.Name == input.name:
		return schemas.NewConflict("Diagram name already exists.", "name")
	case input.url != "" && existing.URL == input.url:
		return schemas.NewConflict("URL already exists.", "url")
	case input.shortCode != "" && existing.ShortCode == input.shortCode:
		return schemas.NewConflict("Short code already exists.", "shortCode")
	}
	return nil
}

func hasDuplicates(values []string) bool {
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		if _, ok := seen[value]; ok {
			return true
		}
		seen[value] = struct{}{}
	}
	return false
}

// Create stores a new diagram owned by the calling user.
func (s *Service) Create(ctx context.Context, req *schemas.CreateDiagramRequest) *schemas.Envelope {
	if req.UserID == "" {
		return schemas.Failure(schemas.NewUnauthorized("User authentication required"))
	}

	err := s.validateDiagramInput(ctx, diagramInput{
		name:      req.Name,
		url:       req.URL,
		shortCode: req.ShortCode,
		slugs:     req.Slugs,
	})
	if err != nil {
		utils.LogMessageWithFields(ctx, "warn", "Rejected diagram: "+err.Error())
		return schemas.Failure(err)
	}

	status := req.Status
	if status == "" {
		status = schemas.StatusActive
	}

	diagram, err := s.diagrams.Create(ctx, &schemas.Diagram{
		Name:      req.Name,
		URL:       req.URL,
		Slugs:     req.Slugs,
		Status:    status,
		ShortCode: req.ShortCode,
		CreatedBy: req.UserID,
	})
	if err != nil {
		return schemas.Failure(err)
	}

	utils.LogMessageWithFields(ctx, "info", "Created diagram "+diagram.ID.Hex())
	return schemas.Success(http.StatusCreated, diagram)
}

// FindAll lists diagrams with their creator.
func (s *Service) FindAll(ctx context.Context, req *schemas.GetDiagramsRequest) *schemas.Envelope {
	filter := bson.M{}
	if createdAt := utils.BuildDateRangeFilter(req.StartDate, req.EndDate); createdAt != nil {
		filter["createdAt"] = createdAt
	}
	if req.UserID != "" {
		filter["createdBy"] = req.UserID
	}
	if req.Status != "" {
		filter["status"] = req.Status
	}

	diagrams := s.diagrams.Paginate(ctx, pagination.Options{
		Filter:          filter,
		Search:          req.Search,
		Limit:           req.Limit,
		Offset:          req.Offset,
		All:             !req.Meta,
		BottomPipelines: creatorLookup(),
	})
	return schemas.Success(http.StatusOK, diagrams)
}

// FindOne returns one diagram with its creator.
func (s *Service) FindOne(ctx context.Context, req *schemas.IDRequest) *schemas.Envelope {
	id, err := primitive.ObjectIDFromHex(req.ID)
	if err != nil {
		return schemas.Failure(schemas.NewBadRequest(invalidDiagramID))
	}

	pipeline := mongo.Pipeline{{{Key: "$match", Value: bson.M{"_id": id}}}}
	pipeline = append(pipeline, creatorLookup()...)

	var diagrams []schemas.Diagram
	if err := s.diagrams.Aggregate(ctx, pipeline, &diagrams); err != nil {
		return schemas.Failure(err)
	}
	if len(diagrams) == 0 {
		return schemas.Failure(schemas.NewNotFound(diagramNotFound))
	}

	return schemas.Success(http.StatusOK, &diagrams[0])
}

// Update applies a partial update. The diagram's own values never count as conflicts.
func (s *Service) Update(ctx context.Context, req *schemas.UpdateDiagramRequest) *schemas.Envelope {
	id, err := primitive.ObjectIDFromHex(req.ID)
	if err != nil {
		return schemas.Failure(schemas.NewBadRequest(invalidDiagramID))
	}

	input := diagramInput{slugs: req.Slugs, excludeID: &id}
	set := bson.M{}
	if req.Name != nil {
		input.name = *req.Name
		set["name"] = *req.Name
	}
	if req.URL != nil {
		input.url = *req.URL
		set["url"] = *req.URL
	}
	if req.ShortCode != nil {
		input.shortCode = *req.ShortCode
		set["shortCode"] = *req.ShortCode
	}
	if req.Status != nil {
		set["status"] = *req.Status
	}
	if req.Slugs != nil {
		set["slugs"] = req.Slugs
	}

	if err := s.validateDiagramInput(ctx, input); err != nil {
		utils.LogMessageWithFields(ctx, "warn", "Rejected diagram update: "+err.Error())
		return schemas.Failure(err)
	}

	diagram, err := s.diagrams.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, repository.WithNotFoundMessage(diagramNotFound))
	if err != nil {
		return schemas.Failure(err)
	}

	return schemas.Success(http.StatusOK, diagram)
}

// Remove deletes one diagram.
func (s *Service) Remove(ctx context.Context, req *schemas.IDRequest) *schemas.Envelope {
	id, err := primitive.ObjectIDFromHex(req.ID)
	if err != nil {
		return schemas.Failure(schemas.NewBadRequest(invalidDiagramID))
	}

	if err := s.diagrams.Delete(ctx, bson.M{"_id": id}); err != nil {
		return schemas.Failure(err)
	}

	utils.LogMessageWithFields(ctx, "info", "Deleted diagram "+req.ID)
	return schemas.Success(http.StatusOK, &schemas.CountDTO{Count: 1})
}

// ImportSlugs replaces the slug list of a diagram with the "slugs" column of the imported rows.
func (s *Service) ImportSlugs(ctx context.Context, req *schemas.ImportSlugsRequest) *schemas.Envelope {
	if len(req.Rows) == 0 {
		return schemas.Failure(schemas.NewBadRequest("No data to import"))
	}

	slugs := make([]string, 0, len(req.Rows))
	for _, row := range req.Rows {
		if slug := strings.TrimSpace(row[slugColumn]); slug != "" {
			slugs = append(slugs, slug)
		}
	}
	if len(slugs) == 0 {
		return schemas.Failure(schemas.NewBadRequest("No valid slugs found"))
	}
	if hasDuplicates(slugs) {
		message := "Imported slugs must be unique within the diagram."
		return schemas.Failure(schemas.NewValidation(message, schemas.FieldError{Field: slugColumn, Message: message}))
	}

	validator := utils.GetValidator()
	for _, slug := range slugs {
		if err := validator.Validate.Var(slug, "slug_validation"); err != nil {
			return schemas.Failure(schemas.NewValidation(schemas.BadRequestMessage, schemas.FieldError{
				Field:   slugColumn,
				Message: "'" + slug + "' is not a valid slug",
			}))
		}
	}

	id, err := primitive.ObjectIDFromHex(req.ID)
	if err != nil {
		return schemas.Failure(schemas.NewBadRequest(invalidDiagramID))
	}

	diagram, err := s.diagrams.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"slugs": slugs}}, repository.WithNotFoundMessage(diagramNotFound))
	if err != nil {
		return schemas.Failure(err)
	}

	utils.LogMessageWithFields(ctx, "info", "Imported slugs into diagram "+req.ID)
	return schemas.Success(http.StatusOK, &schemas.DiagramDTO{Diagram: diagram})
}
