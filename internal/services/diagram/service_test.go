package diagram

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"diagram-hub/internal/managers/mocks"
	"diagram-hub/internal/pagination"
	"diagram-hub/internal/schemas"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func alphaRequest() *schemas.CreateDiagramRequest {
	return &schemas.CreateDiagramRequest{
		Name:      "Alpha",
		URL:       "https://a.com",
		ShortCode: "A1",
		Slugs:     []string{"x", "y"},
		UserID:    "663f1c2e9b1d4a0012345678",
	}
}

func TestCreate(t *testing.T) {
	t.Run("Succeeds", func(t *testing.T) {
		store := &mocks.MockStore[schemas.Diagram]{}
		store.On("FindOne", mock.Anything, mock.Anything).Return(nil, nil)

		var stored *schemas.Diagram
		store.On("Create", mock.Anything, mock.MatchedBy(func(d *schemas.Diagram) bool {
			stored = d
			return true
		})).Return(&schemas.Diagram{BaseDocument: schemas.BaseDocument{ID: primitive.NewObjectID()}, Name: "Alpha"}, nil)

		envelope := NewService(store).Create(context.Background(), alphaRequest())

		require.Equal(t, http.StatusCreated, envelope.StatusCode)
		require.NotNil(t, stored)
		assert.Equal(t, "663f1c2e9b1d4a0012345678", stored.CreatedBy)
		assert.Equal(t, schemas.StatusActive, stored.Status)
		assert.Equal(t, []string{"x", "y"}, stored.Slugs)
	})

	t.Run("SecondAlphaConflictsOnName", func(t *testing.T) {
		store := &mocks.MockStore[schemas.Diagram]{}
		store.On("FindOne", mock.Anything, bson.M{"$or": bson.A{
			bson.M{"name": "Alpha"},
			bson.M{"url": "https://b.com"},
			bson.M{"shortCode": "B1"},
		}}).Return(&schemas.Diagram{Name: "Alpha", URL: "https://a.com", ShortCode: "A1"}, nil)

		req := alphaRequest()
		req.URL = "https://b.com"
		req.ShortCode = "B1"
		envelope := NewService(store).Create(context.Background(), req)

		assert.Equal(t, http.StatusConflict, envelope.StatusCode)
		assert.Equal(t, "Diagram name already exists.", envelope.Message)
		assert.Equal(t, "name", envelope.Errors.Field)
		assert.ErrorIs(t, envelope.Errors, schemas.ErrConflict)
		store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("ConflictOrder", func(t *testing.T) {
		testCases := []struct {
			name     string
			existing schemas.Diagram
			field    string
		}{
			{"URL", schemas.Diagram{Name: "Other", URL: "https://a.com", ShortCode: "A1"}, "url"},
			{"ShortCode", schemas.Diagram{Name: "Other", URL: "https://o.com", ShortCode: "A1"}, "shortCode"},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				store := &mocks.MockStore[schemas.Diagram]{}
				existing := tc.existing
				store.On("FindOne", mock.Anything, mock.Anything).Return(&existing, nil)

				envelope := NewService(store).Create(context.Background(), alphaRequest())

				assert.Equal(t, http.StatusConflict, envelope.StatusCode)
				assert.Equal(t, tc.field, envelope.Errors.Field)
			})
		}
	})

	t.Run("DuplicateSlugs", func(t *testing.T) {
		store := &mocks.MockStore[schemas.Diagram]{}
		req := alphaRequest()
		req.Slugs = []string{"x", "x"}

		envelope := NewService(store).Create(context.Background(), req)

		assert.Equal(t, http.StatusBadRequest, envelope.StatusCode)
		assert.Equal(t, msgDuplicateSlugs, envelope.Message)
		store.AssertNotCalled(t, "FindOne", mock.Anything, mock.Anything)
	})

	t.Run("RequiresUser", func(t *testing.T) {
		req := alphaRequest()
		req.UserID = ""

		envelope := NewService(&mocks.MockStore[schemas.Diagram]{}).Create(context.Background(), req)

		assert.Equal(t, http.StatusUnauthorized, envelope.StatusCode)
		assert.Equal(t, "User authentication required", envelope.Message)
	})

	t.Run("IndexViolationIsConflict", func(t *testing.T) {
		store := &mocks.MockStore[schemas.Diagram]{}
		store.On("FindOne", mock.Anything, mock.Anything).Return(nil, nil)
		store.On("Create", mock.Anything, mock.Anything).Return(nil, schemas.NewConflict("Diagram already exists.", "shortCode"))

		envelope := NewService(store).Create(context.Background(), alphaRequest())

		assert.Equal(t, http.StatusConflict, envelope.StatusCode)
		assert.Equal(t, "shortCode", envelope.Errors.Field)
	})
}

func TestUpdateExcludesItself(t *testing.T) {
	id := primitive.NewObjectID()
	name := "Alpha"

	store := &mocks.MockStore[schemas.Diagram]{}
	store.On("FindOne", mock.Anything, bson.M{
		"$or": bson.A{bson.M{"name": "Alpha"}},
		"_id": bson.M{"$ne": id},
	}).Return(nil, nil)
	store.On("FindOneAndUpdate", mock.Anything, bson.M{"_id": id}, bson.M{"$set": bson.M{"name": "Alpha"}}).
		Return(&schemas.Diagram{BaseDocument: schemas.BaseDocument{ID: id}, Name: "Alpha"}, nil)

	envelope := NewService(store).Update(context.Background(), &schemas.UpdateDiagramRequest{ID: id.Hex(), Name: &name})

	assert.Equal(t, http.StatusOK, envelope.StatusCode)
	store.AssertExpectations(t)
}

func TestUpdateInvalidID(t *testing.T) {
	envelope := NewService(&mocks.MockStore[schemas.Diagram]{}).Update(context.Background(), &schemas.UpdateDiagramRequest{ID: "42"})

	assert.Equal(t, http.StatusBadRequest, envelope.StatusCode)
	assert.Equal(t, invalidDiagramID, envelope.Message)
}

func TestImportSlugs(t *testing.T) {
	id := primitive.NewObjectID()

	rows := func(slugs ...string) []map[string]string {
		result := make([]map[string]string, 0, len(slugs))
		for _, slug := range slugs {
			result = append(result, map[string]string{"slugs": slug, "title": "ignored"})
		}
		return result
	}

	testCases := []struct {
		name    string
		rows    []map[string]string
		message string
	}{
		{"Empty", nil, "No data to import"},
		{"NoSlugColumn", []map[string]string{{"title": "x"}}, "No valid slugs found"},
		{"Duplicates", rows("x", "x"), "Imported slugs must be unique within the diagram."},
		{"InvalidSlug", rows("not a slug"), schemas.BadRequestMessage},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := &mocks.MockStore[schemas.Diagram]{}

			envelope := NewService(store).ImportSlugs(context.Background(), &schemas.ImportSlugsRequest{ID: id.Hex(), Rows: tc.rows})

			assert.Equal(t, http.StatusBadRequest, envelope.StatusCode)
			assert.Equal(t, tc.message, envelope.Message)
			store.AssertNotCalled(t, "FindOneAndUpdate", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("ReplacesSlugs", func(t *testing.T) {
		store := &mocks.MockStore[schemas.Diagram]{}
		store.On("FindOneAndUpdate", mock.Anything, bson.M{"_id": id}, bson.M{"$set": bson.M{"slugs": []string{"a", "b"}}}).
			Return(&schemas.Diagram{Slugs: []string{"a", "b"}}, nil)

		envelope := NewService(store).ImportSlugs(context.Background(), &schemas.ImportSlugsRequest{ID: id.Hex(), Rows: rows("a", " b ", "")})

		require.Equal(t, http.StatusOK, envelope.StatusCode)
		assert.Equal(t, []string{"a", "b"}, envelope.Data.(*schemas.DiagramDTO).Diagram.Slugs)
	})

	t.Run("UnknownDiagram", func(t *testing.T) {
		store := &mocks.MockStore[schemas.Diagram]{}
		store.On("FindOneAndUpdate", mock.Anything, mock.Anything, mock.Anything).Return(nil, schemas.NewNotFound(diagramNotFound))

		envelope := NewService(store).ImportSlugs(context.Background(), &schemas.ImportSlugsRequest{ID: id.Hex(), Rows: rows("a")})

		assert.Equal(t, http.StatusNotFound, envelope.StatusCode)
		assert.Equal(t, diagramNotFound, envelope.Message)
	})
}

func TestFindOne(t *testing.T) {
	id := primitive.NewObjectID()

	t.Run("WithCreator", func(t *testing.T) {
		store := &mocks.MockStore[schemas.Diagram]{}
		store.On("Aggregate", mock.Anything, mock.MatchedBy(func(pipeline mongo.Pipeline) bool {
			return len(pipeline) == 3 && pipeline[1][0].Key == "$lookup"
		}), mock.Anything).
			Run(func(args mock.Arguments) {
				out := args.Get(2).(*[]schemas.Diagram)
				*out = []schemas.Diagram{{Name: "Alpha", Creator: &schemas.UserSummary{Name: "Ada"}}}
			}).
			Return(nil)

		envelope := NewService(store).FindOne(context.Background(), &schemas.IDRequest{ID: id.Hex()})

		require.Equal(t, http.StatusOK, envelope.StatusCode)
		assert.Equal(t, "Ada", envelope.Data.(*schemas.Diagram).Creator.Name)
	})

	t.Run("Missing", func(t *testing.T) {
		store := &mocks.MockStore[schemas.Diagram]{}
		store.On("Aggregate", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		envelope := NewService(store).FindOne(context.Background(), &schemas.IDRequest{ID: id.Hex()})

		assert.Equal(t, http.StatusNotFound, envelope.StatusCode)
	})

	t.Run("StoreFailure", func(t *testing.T) {
		store := &mocks.MockStore[schemas.Diagram]{}
		store.On("Aggregate", mock.Anything, mock.Anything, mock.Anything).Return(schemas.NewBadRequest("Invalid diagram data entered, boom").WithCause(errors.New("boom")))

		envelope := NewService(store).FindOne(context.Background(), &schemas.IDRequest{ID: id.Hex()})

		assert.Equal(t, http.StatusBadRequest, envelope.StatusCode)
	})
}

func TestFindAll(t *testing.T) {
	store := &mocks.MockStore[schemas.Diagram]{}
	store.On("Paginate", mock.Anything, mock.MatchedBy(func(opts pagination.Options) bool {
		return opts.Filter["createdBy"] == "u-1" && !opts.All && opts.Limit == 5 && len(opts.BottomPipelines) == 2
	})).Return(&pagination.Result[schemas.Diagram]{Key: "diagrams", Meta: &pagination.Meta{Page: 1, Limit: 5}})

	envelope := NewService(store).FindAll(context.Background(), &schemas.GetDiagramsRequest{
		PageQuery: schemas.PageQuery{Limit: 5, Meta: true},
		UserID:    "u-1",
	})

	assert.Equal(t, http.StatusOK, envelope.StatusCode)
	store.AssertExpectations(t)
}

func TestRemove(t *testing.T) {
	id := primitive.NewObjectID()
	store := &mocks.MockStore[schemas.Diagram]{}
	store.On("Delete", mock.Anything, bson.M{"_id": id}).Return(schemas.NewNotFound("Diagram not found."))

	envelope := NewService(store).Remove(context.Background(), &schemas.IDRequest{ID: id.Hex()})

	assert.Equal(t, http.StatusNotFound, envelope.StatusCode)
}
