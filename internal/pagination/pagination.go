// Package pagination turns declarative listing options into a single faceted aggregation
// and shapes the result with page metadata.
package pagination

import (
	"context"
	"encoding/json"
	"math"
	"regexp"
	"strings"

	"diagram-hub/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultLimit  = 10
	DefaultOffset = 0
)

// SearchMethod selects how per-field search conditions are combined.
type SearchMethod string

const (
	SearchOr  SearchMethod = "or"
	SearchAnd SearchMethod = "and"
)

// Options describes one listing request.
type Options struct {
	Filter          bson.M
	Search          string
	SearchBy        []string
	Method          SearchMethod
	Sort            bson.D
	Limit           int
	Offset          int
	All             bool
	Projection      bson.M
	Pipelines       []bson.D // stages before the match
	BottomPipelines []bson.D // stages between the match and the sort
	ReturnKey       string
}

// Meta is the page metadata returned for windowed listings.
type Meta struct {
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// Result holds one listing. It marshals as {"<Key>": [...], "meta": {...}}.
type Result[T any] struct {
	Key  string
	Data []T
	Meta *Meta
}

func (r Result[T]) MarshalJSON() ([]byte, error) {
	data := r.Data
	if data == nil {
		data = []T{}
	}
	body := map[string]interface{}{r.Key: data}
	if r.Meta != nil {
		body["meta"] = r.Meta
	}
	return json.Marshal(body)
}

// Aggregator is the part of a collection the pagination utility needs.
type Aggregator interface {
	Aggregate(ctx context.Context, pipeline interface{}, opts ...*options.AggregateOptions) (*mongo.Cursor, error)
}

type facetResult[T any] struct {
	Data  []T   `bson:"data"`
	Total int64 `bson:"total"`
}

// SearchConditions builds one case-insensitive partial-match condition per field.
// Whitespace separated tokens match if any of them occurs.
func SearchConditions(search string, fields []string) []bson.M {
	tokens := strings.Fields(search)
	if len(tokens) == 0 || len(fields) == 0 {
		return nil
	}

	for i, token := range tokens {
		tokens[i] = regexp.QuoteMeta(token)
	}
	pattern := ".*" + strings.Join(tokens, "|") + ".*"

	conditions := make([]bson.M, 0, len(fields))
	for _, field := range fields {
		conditions = append(conditions, bson.M{
			field: primitive.Regex{Pattern: pattern, Options: "i"},
		})
	}
	return conditions
}

// normalize applies defaults to limit and offset.
func (o Options) normalize() Options {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Offset < 0 {
		o.Offset = DefaultOffset
	}
	if o.Method == "" {
		o.Method = SearchOr
	}
	return o
}

// matchStage merges the base filter with the search conditions.
func matchStage(opts Options, defaultSearchFields []string) bson.M {
	match := bson.M{}
	for key, value := range opts.Filter {
		match[key] = value
	}

	fields := opts.SearchBy
	if len(fields) == 0 {
		fields = defaultSearchFields
	}
	conditions := SearchConditions(opts.Search, fields)
	if len(conditions) == 0 {
		return match
	}

	// Search conditions go under $and so they never replace a base filter on the same field.
	and := bson.A{}
	if existing, ok := match["$and"].(bson.A); ok {
		and = append(and, existing...)
	}
	if opts.Method == SearchAnd {
		for _, condition := range conditions {
			and = append(and, condition)
		}
	} else {
		or := bson.A{}
		for _, condition := range conditions {
			or = append(or, condition)
		}
		and = append(and, bson.M{"$or": or})
	}
	match["$and"] = and
	return match
}

// sortStage appends descending creation time unless the caller already sorts on it.
func sortStage(sort bson.D) bson.D {
	merged := make(bson.D, 0, len(sort)+1)
	hasCreatedAt := false
	for _, element := range sort {
		if element.Key == "createdAt" {
			hasCreatedAt = true
		}
		merged = append(merged, element)
	}
	if !hasCreatedAt {
		merged = append(merged, bson.E{Key: "createdAt", Value: -1})
	}
	return merged
}

// BuildPipeline composes the aggregation for opts.
func BuildPipeline(opts Options, defaultSearchFields []string) mongo.Pipeline {
	opts = opts.normalize()

	pipeline := mongo.Pipeline{}
	pipeline = append(pipeline, opts.Pipelines...)
	pipeline = append(pipeline, bson.D{{Key: "$match", Value: matchStage(opts, defaultSearchFields)}})
	pipeline = append(pipeline, opts.BottomPipelines...)
	pipeline = append(pipeline, bson.D{{Key: "$sort", Value: sortStage(opts.Sort)}})

	data := bson.A{}
	if !opts.All {
		data = append(data,
			bson.D{{Key: "$skip", Value: opts.Offset}},
			bson.D{{Key: "$limit", Value: opts.Limit}},
		)
	}
	if len(opts.Projection) > 0 {
		data = append(data, bson.D{{Key: "$project", Value: opts.Projection}})
	}
	if len(data) == 0 {
		// keep the data facet non-empty
		data = append(data, bson.D{{Key: "$match", Value: bson.M{}}})
	}

	pipeline = append(pipeline,
		bson.D{{Key: "$facet", Value: bson.D{
			{Key: "total", Value: bson.A{bson.D{{Key: "$count", Value: "count"}}}},
			{Key: "data", Value: data},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "data", Value: 1},
			{Key: "total", Value: bson.D{{Key: "$ifNull", Value: bson.A{
				bson.D{{Key: "$arrayElemAt", Value: bson.A{"$total.count", 0}}}, 0,
			}}}},
		}}},
	)
	return pipeline
}

// PageMeta computes page = ceil(offset/limit + 1) and pages = ceil(total/limit).
func PageMeta(offset, limit int, total int64) *Meta {
	if limit <= 0 {
		return &Meta{Limit: limit, Total: total}
	}
	return &Meta{
		Page:  int(math.Ceil(float64(offset)/float64(limit) + 1)),
		Pages: int(math.Ceil(float64(total) / float64(limit))),
		Limit: limit,
		Total: total,
	}
}

// Paginate runs the listing. Execution errors are logged and produce an empty result
// (zero-valued meta when windowed) instead of being returned.
func Paginate[T any](ctx context.Context, aggregator Aggregator, opts Options, defaultSearchFields []string, defaultKey string) *Result[T] {
	opts = opts.normalize()
	key := opts.ReturnKey
	if key == "" {
		key = defaultKey
	}

	result := &Result[T]{Key: key, Data: []T{}}
	if !opts.All {
		result.Meta = &Meta{}
	}

	cursor, err := aggregator.Aggregate(ctx, BuildPipeline(opts, defaultSearchFields))
	if err != nil {
		utils.EntryFromContext(ctx).WithError(err).Error("Pagination query failed")
		return result
	}
	defer cursor.Close(ctx)

	var facets []facetResult[T]
	if err := cursor.All(ctx, &facets); err != nil {
		utils.EntryFromContext(ctx).WithError(err).Error("Pagination result could not be decoded")
		return result
	}
	if len(facets) == 0 {
		return result
	}

	if facets[0].Data != nil {
		result.Data = facets[0].Data
	}
	if !opts.All {
		result.Meta = PageMeta(opts.Offset, opts.Limit, facets[0].Total)
	}
	return result
}
