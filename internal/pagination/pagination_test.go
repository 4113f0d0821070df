package pagination

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mockAggregator struct {
	mock.Mock
}

func (m *mockAggregator) Aggregate(ctx context.Context, pipeline interface{}, opts ...*options.AggregateOptions) (*mongo.Cursor, error) {
	args := m.Called(ctx, pipeline)
	cursor, _ := args.Get(0).(*mongo.Cursor)
	return cursor, args.Error(1)
}

type item struct {
	Name string `bson:"name" json:"name"`
}

func stageNamed(pipeline mongo.Pipeline, name string) (bson.D, bool) {
	for _, stage := range pipeline {
		if len(stage) > 0 && stage[0].Key == name {
			return stage, true
		}
	}
	return nil, false
}

func facetData(t *testing.T, pipeline mongo.Pipeline) bson.A {
	facet, ok := stageNamed(pipeline, "$facet")
	require.True(t, ok)
	for _, element := range facet[0].Value.(bson.D) {
		if element.Key == "data" {
			return element.Value.(bson.A)
		}
	}
	t.Fatal("facet has no data branch")
	return nil
}

func dataStageNames(data bson.A) []string {
	var names []string
	for _, stage := range data {
		names = append(names, stage.(bson.D)[0].Key)
	}
	return names
}

func TestBuildPipelineWindowing(t *testing.T) {
	t.Run("AllOmitsSkipAndLimit", func(t *testing.T) {
		pipeline := BuildPipeline(Options{All: true, Offset: 20, Limit: 5}, nil)
		names := dataStageNames(facetData(t, pipeline))
		assert.NotContains(t, names, "$skip")
		assert.NotContains(t, names, "$limit")
	})

	t.Run("WindowedAddsSkipAndLimit", func(t *testing.T) {
		pipeline := BuildPipeline(Options{Offset: 20, Limit: 5}, nil)
		data := facetData(t, pipeline)
		assert.Equal(t, bson.D{{Key: "$skip", Value: 20}}, data[0])
		assert.Equal(t, bson.D{{Key: "$limit", Value: 5}}, data[1])
	})

	t.Run("DefaultsApply", func(t *testing.T) {
		pipeline := BuildPipeline(Options{Offset: -3}, nil)
		data := facetData(t, pipeline)
		assert.Equal(t, bson.D{{Key: "$skip", Value: DefaultOffset}}, data[0])
		assert.Equal(t, bson.D{{Key: "$limit", Value: DefaultLimit}}, data[1])
	})

	t.Run("ProjectionGoesIntoData", func(t *testing.T) {
		pipeline := BuildPipeline(Options{All: true, Projection: bson.M{"password": 0}}, nil)
		assert.Equal(t, []string{"$project"}, dataStageNames(facetData(t, pipeline)))
	})
}

func TestBuildPipelineStageOrder(t *testing.T) {
	pre := bson.D{{Key: "$addFields", Value: bson.M{"x": 1}}}
	post := bson.D{{Key: "$lookup", Value: bson.M{"from": "users"}}}

	pipeline := BuildPipeline(Options{Pipelines: []bson.D{pre}, BottomPipelines: []bson.D{post}}, nil)

	var names []string
	for _, stage := range pipeline {
		names = append(names, stage[0].Key)
	}
	assert.Equal(t, []string{"$addFields", "$match", "$lookup", "$sort", "$facet", "$project"}, names)
}

func TestBuildPipelineSort(t *testing.T) {
	t.Run("CreatedAtTiebreaker", func(t *testing.T) {
		pipeline := BuildPipeline(Options{Sort: bson.D{{Key: "name", Value: 1}}}, nil)
		sort, _ := stageNamed(pipeline, "$sort")
		assert.Equal(t, bson.D{{Key: "name", Value: 1}, {Key: "createdAt", Value: -1}}, sort[0].Value)
	})

	t.Run("CallerCreatedAtWins", func(t *testing.T) {
		pipeline := BuildPipeline(Options{Sort: bson.D{{Key: "createdAt", Value: 1}}}, nil)
		sort, _ := stageNamed(pipeline, "$sort")
		assert.Equal(t, bson.D{{Key: "createdAt", Value: 1}}, sort[0].Value)
	})
}

func TestBuildPipelineSearch(t *testing.T) {
	regex := primitive.Regex{Pattern: ".*foo|bar.*", Options: "i"}

	t.Run("EmptySearchSkipsConditions", func(t *testing.T) {
		pipeline := BuildPipeline(Options{Filter: bson.M{"status": "ACTIVE"}, Search: "   "}, []string{"name"})
		match, _ := stageNamed(pipeline, "$match")
		assert.Equal(t, bson.M{"status": "ACTIVE"}, match[0].Value)
	})

	t.Run("OrAcrossFields", func(t *testing.T) {
		pipeline := BuildPipeline(Options{Filter: bson.M{"status": "ACTIVE"}, Search: "foo bar"}, []string{"name", "url"})
		match, _ := stageNamed(pipeline, "$match")
		assert.Equal(t, bson.M{
			"status": "ACTIVE",
			"$and": bson.A{bson.M{"$or": bson.A{
				bson.M{"name": regex},
				bson.M{"url": regex},
			}}},
		}, match[0].Value)
	})

	t.Run("AndRequiresEveryField", func(t *testing.T) {
		pipeline := BuildPipeline(Options{Search: "foo bar", SearchBy: []string{"method", "url"}, Method: SearchAnd}, []string{"name"})
		match, _ := stageNamed(pipeline, "$match")
		assert.Equal(t, bson.M{"$and": bson.A{
			bson.M{"method": regex},
			bson.M{"url": regex},
		}}, match[0].Value)
	})

	t.Run("AndKeepsBaseFilterOnSameField", func(t *testing.T) {
		testCases := []struct {
			name   string
			filter bson.M
			want   bson.M
		}{
			{
				name:   "PlainValue",
				filter: bson.M{"method": "GET"},
				want: bson.M{
					"method": "GET",
					"$and":   bson.A{bson.M{"method": regex}},
				},
			},
			{
				name:   "OperatorValue",
				filter: bson.M{"method": bson.M{"$in": bson.A{"GET", "POST"}}},
				want: bson.M{
					"method": bson.M{"$in": bson.A{"GET", "POST"}},
					"$and":   bson.A{bson.M{"method": regex}},
				},
			},
			{
				name:   "ExistingAnd",
				filter: bson.M{"method": "GET", "$and": bson.A{bson.M{"a": 1}}},
				want: bson.M{
					"method": "GET",
					"$and":   bson.A{bson.M{"a": 1}, bson.M{"method": regex}},
				},
			},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				pipeline := BuildPipeline(Options{Filter: tc.filter, Search: "foo bar", SearchBy: []string{"method"}, Method: SearchAnd}, nil)
				match, _ := stageNamed(pipeline, "$match")
				assert.Equal(t, tc.want, match[0].Value)
			})
		}
	})

	t.Run("ExistingAndIsPreserved", func(t *testing.T) {
		existing := bson.A{bson.M{"a": 1}}
		pipeline := BuildPipeline(Options{Filter: bson.M{"$and": existing}, Search: "foo"}, []string{"name"})
		match, _ := stageNamed(pipeline, "$match")
		assert.Len(t, match[0].Value.(bson.M)["$and"], 2)
		assert.Len(t, existing, 1)
	})

	t.Run("TokensAreQuoted", func(t *testing.T) {
		conditions := SearchConditions("a.b", []string{"name"})
		assert.Equal(t, `.*a\.b.*`, conditions[0]["name"].(primitive.Regex).Pattern)
	})
}

func TestPageMeta(t *testing.T) {
	testCases := []struct {
		name          string
		offset, limit int
		total         int64
		page, pages   int
	}{
		{"FirstPage", 0, 10, 25, 1, 3},
		{"SecondPage", 10, 10, 25, 2, 3},
		{"UnalignedOffset", 5, 10, 25, 2, 3},
		{"Empty", 0, 10, 0, 1, 0},
		{"ExactFit", 20, 10, 30, 3, 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			meta := PageMeta(tc.offset, tc.limit, tc.total)
			assert.Equal(t, tc.page, meta.Page)
			assert.Equal(t, tc.pages, meta.Pages)
			assert.Equal(t, tc.limit, meta.Limit)
			assert.Equal(t, tc.total, meta.Total)
		})
	}
}

func TestPaginate(t *testing.T) {
	ctx := context.Background()
	facet := bson.D{
		{Key: "data", Value: bson.A{bson.D{{Key: "name", Value: "a"}}, bson.D{{Key: "name", Value: "b"}}}},
		{Key: "total", Value: int32(12)},
	}

	t.Run("Windowed", func(t *testing.T) {
		cursor, err := mongo.NewCursorFromDocuments([]interface{}{facet}, nil, nil)
		require.NoError(t, err)
		aggregator := &mockAggregator{}
		aggregator.On("Aggregate", ctx, mock.AnythingOfType("mongo.Pipeline")).Return(cursor, nil)

		result := Paginate[item](ctx, aggregator, Options{Offset: 10, Limit: 10}, nil, "items")

		assert.Equal(t, "items", result.Key)
		assert.Equal(t, []item{{Name: "a"}, {Name: "b"}}, result.Data)
		assert.Equal(t, &Meta{Page: 2, Pages: 2, Limit: 10, Total: 12}, result.Meta)
		aggregator.AssertExpectations(t)
	})

	t.Run("AllHasNoMeta", func(t *testing.T) {
		cursor, err := mongo.NewCursorFromDocuments([]interface{}{facet}, nil, nil)
		require.NoError(t, err)
		aggregator := &mockAggregator{}
		aggregator.On("Aggregate", ctx, mock.Anything).Return(cursor, nil)

		result := Paginate[item](ctx, aggregator, Options{All: true, ReturnKey: "things"}, nil, "items")

		assert.Equal(t, "things", result.Key)
		assert.Len(t, result.Data, 2)
		assert.Nil(t, result.Meta)
	})

	t.Run("ErrorDegradesToEmpty", func(t *testing.T) {
		aggregator := &mockAggregator{}
		aggregator.On("Aggregate", ctx, mock.Anything).Return(nil, errors.New("connection reset"))

		result := Paginate[item](ctx, aggregator, Options{Limit: 5}, nil, "items")

		assert.Empty(t, result.Data)
		assert.Equal(t, &Meta{}, result.Meta)
	})
}

func TestResultMarshalJSON(t *testing.T) {
	windowed, err := json.Marshal(&Result[item]{Key: "items", Data: []item{{Name: "a"}}, Meta: &Meta{Page: 1, Pages: 1, Limit: 10, Total: 1}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[{"name":"a"}],"meta":{"page":1,"pages":1,"limit":10,"total":1}}`, string(windowed))

	all, err := json.Marshal(Result[item]{Key: "items"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[]}`, string(all))
}
