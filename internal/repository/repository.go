// Package repository provides the generic persistence operations shared by every collection.
package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"diagram-hub/internal/interfaces"
	"diagram-hub/internal/pagination"
	"diagram-hub/internal/schemas"
	"diagram-hub/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Config describes the entity a repository persists.
type Config struct {
	// EntityName is used in error messages, e.g. "Diagram" or "Activity log".
	EntityName string
	// SearchFields are matched by free-text search when a listing does not name its own.
	SearchFields []string
	// ReturnKey names the data array of listings. Defaults to the camel-cased collection name.
	ReturnKey string
	// Now is the clock used for timestamps. Defaults to time.Now.
	Now func() time.Time
}

// Store is the set of operations services depend on.
type Store[T any] interface {
	Create(ctx context.Context, doc *T) (*T, error)
	CreateMany(ctx context.Context, docs []*T) ([]*T, error)
	Delete(ctx context.Context, filter interface{}) error
	DeleteWithoutException(ctx context.Context, filter interface{}) (int64, error)
	DeleteMany(ctx context.Context, filter bson.M, ids []interface{}, column string) (int64, error)
	DeleteManyWithoutException(ctx context.Context, filter bson.M, ids []interface{}, column string) (int64, error)
	FindOne(ctx context.Context, filter interface{}, opts ...FindOption) (*T, error)
	FindOneWithoutException(ctx context.Context, filter interface{}, opts ...FindOption) *T
	FindOneAndUpdate(ctx context.Context, filter interface{}, update bson.M, opts ...FindOption) (*T, error)
	FindOneAndDelete(ctx context.Context, filter interface{}, opts ...FindOption) (*T, error)
	UpdateMany(ctx context.Context, filter interface{}, update bson.M) (int64, error)
	Upsert(ctx context.Context, filter interface{}, update bson.M) (*T, error)
	FindOneAndUpdateToday(ctx context.Context, filter bson.M, update bson.M) (*T, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]T, error)
	Distinct(ctx context.Context, field string, filter interface{}) ([]interface{}, error)
	Count(ctx context.Context, filter interface{}) (int64, error)
	Aggregate(ctx context.Context, pipeline mongo.Pipeline, out interface{}) error
	BulkWrite(ctx context.Context, models []mongo.WriteModel) (*mongo.BulkWriteResult, error)
	Paginate(ctx context.Context, opts pagination.Options) *pagination.Result[T]
}

// Repository implements Store over a single collection.
type Repository[T any] struct {
	collection interfaces.MongoCollectionIface
	config     Config
	now        func() time.Time
}

// New creates a repository for the given collection.
func New[T any](collection interfaces.MongoCollectionIface, config Config) *Repository[T] {
	if config.ReturnKey == "" {
		config.ReturnKey = utils.CamelCase(collection.Name())
	}
	if config.EntityName == "" {
		config.EntityName = collection.Name()
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Repository[T]{
		collection: collection,
		config:     config,
		now:        config.Now,
	}
}

// FindOption tweaks a single-document lookup.
type FindOption func(*findConfig)

type findConfig struct {
	projection      interface{}
	throwNotFound   bool
	notFoundMessage string
	upsert          bool
}

// WithProjection limits the returned fields.
func WithProjection(projection interface{}) FindOption {
	return func(c *findConfig) { c.projection = projection }
}

// WithNotFoundMessage replaces the default "<Entity> not found." message.
func WithNotFoundMessage(message string) FindOption {
	return func(c *findConfig) { c.notFoundMessage = message }
}

// SuppressNotFound makes a missing document return (nil, nil) instead of a NotFound error.
func SuppressNotFound() FindOption {
	return func(c *findConfig) { c.throwNotFound = false }
}

func withUpsert() FindOption {
	return func(c *findConfig) { c.upsert = true }
}

func (r *Repository[T]) findOptions(opts []FindOption) *findConfig {
	config := &findConfig{throwNotFound: true}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

func (r *Repository[T]) notFound(config *findConfig) error {
	if config.notFoundMessage != "" {
		return schemas.NewNotFound(config.notFoundMessage)
	}
	return schemas.NewNotFound(r.config.EntityName + " not found.")
}

// translate maps driver errors onto the domain taxonomy.
func (r *Repository[T]) translate(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return schemas.NewConflict(r.config.EntityName+" already exists.", duplicateField(err)).WithCause(err)
	}
	return schemas.NewBadRequest(fmt.Sprintf("Invalid %s data entered, %s", strings.ToLower(r.config.EntityName), err.Error())).WithCause(err)
}

var dupKeyPattern = regexp.MustCompile(`dup key: \{ ?"?([\w.]+)"?\s*:`)

// duplicateField extracts the offending key from an E11000 error, if present.
func duplicateField(err error) string {
	var writeException mongo.WriteException
	if errors.As(err, &writeException) {
		for _, writeErr := range writeException.WriteErrors {
			if len(writeErr.Raw) == 0 {
				continue
			}
			if raw, ok := writeErr.Raw.Lookup("keyValue").DocumentOK(); ok {
				if elements, elErr := raw.Elements(); elErr == nil && len(elements) > 0 {
					return elements[0].Key()
				}
			}
		}
	}
	if match := dupKeyPattern.FindStringSubmatch(err.Error()); len(match) == 2 {
		return match[1]
	}
	return ""
}

func (r *Repository[T]) prepare(doc *T, now time.Time) {
	if document, ok := any(doc).(schemas.Document); ok {
		if document.GetID().IsZero() {
			document.SetID(primitive.NewObjectID())
		}
		document.SetTimestamps(now, now)
	}
}

// Create inserts doc, assigning an id and timestamps when they are missing.
func (r *Repository[T]) Create(ctx context.Context, doc *T) (*T, error) {
	r.prepare(doc, r.now())
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return nil, r.translate(err)
	}
	return doc, nil
}

// CreateMany inserts docs in bulk. Every failure is reported as invalid data.
func (r *Repository[T]) CreateMany(ctx context.Context, docs []*T) ([]*T, error) {
	if len(docs) == 0 {
		return docs, nil
	}
	now := r.now()
	documents := make([]interface{}, 0, len(docs))
	for _, doc := range docs {
		r.prepare(doc, now)
		documents = append(documents, doc)
	}
	if _, err := r.collection.InsertMany(ctx, documents); err != nil {
		return nil, schemas.NewBadRequest(fmt.Sprintf("Invalid %s data entered, %s", strings.ToLower(r.config.EntityName), err.Error())).WithCause(err)
	}
	return docs, nil
}

// Delete removes one document and fails with NotFound when nothing matched.
func (r *Repository[T]) Delete(ctx context.Context, filter interface{}) error {
	deleted, err := r.DeleteWithoutException(ctx, filter)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return schemas.NewNotFound(r.config.EntityName + " not found.")
	}
	return nil
}

// DeleteWithoutException removes one document and reports how many were deleted.
func (r *Repository[T]) DeleteWithoutException(ctx context.Context, filter interface{}) (int64, error) {
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return 0, r.translate(err)
	}
	return result.DeletedCount, nil
}

// DeleteMany removes every match of filter, narrowed to ids on column when ids are given.
// Zero deletions is a NotFound error.
func (r *Repository[T]) DeleteMany(ctx context.Context, filter bson.M, ids []interface{}, column string) (int64, error) {
	deleted, err := r.DeleteManyWithoutException(ctx, filter, ids, column)
	if err != nil {
		return 0, err
	}
	if deleted == 0 {
		return 0, schemas.NewNotFound(r.config.EntityName + " not found.")
	}
	return deleted, nil
}

func (r *Repository[T]) DeleteManyWithoutException(ctx context.Context, filter bson.M, ids []interface{}, column string) (int64, error) {
	query := bson.M{}
	for key, value := range filter {
		query[key] = value
	}
	if len(ids) > 0 {
		if column == "" {
			column = "_id"
		}
		query[column] = bson.M{"$in": ids}
	}

	result, err := r.collection.DeleteMany(ctx, query)
	if err != nil {
		return 0, r.translate(err)
	}
	return result.DeletedCount, nil
}

// FindOne returns the first match. A missing document is a NotFound error unless SuppressNotFound is given.
func (r *Repository[T]) FindOne(ctx context.Context, filter interface{}, opts ...FindOption) (*T, error) {
	config := r.findOptions(opts)
	findOptions := options.FindOne()
	if config.projection != nil {
		findOptions.SetProjection(config.projection)
	}

	doc := new(T)
	if err := r.collection.FindOne(ctx, filter, findOptions).Decode(doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if config.throwNotFound {
				return nil, r.notFound(config)
			}
			return nil, nil
		}
		return nil, r.translate(err)
	}
	return doc, nil
}

// FindOneWithoutException never fails; it returns nil for missing documents and lookup errors alike.
func (r *Repository[T]) FindOneWithoutException(ctx context.Context, filter interface{}, opts ...FindOption) *T {
	doc, err := r.FindOne(ctx, filter, append(opts, SuppressNotFound())...)
	if err != nil {
		utils.EntryFromContext(ctx).WithError(err).Warn("Lookup on " + r.collection.Name() + " failed")
		return nil
	}
	return doc
}

// FindOneAndUpdate applies update and returns the document as it is after the update.
func (r *Repository[T]) FindOneAndUpdate(ctx context.Context, filter interface{}, update bson.M, opts ...FindOption) (*T, error) {
	config := r.findOptions(opts)
	updateOptions := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if config.projection != nil {
		updateOptions.SetProjection(config.projection)
	}
	if config.upsert {
		updateOptions.SetUpsert(true)
	}

	doc := new(T)
	err := r.collection.FindOneAndUpdate(ctx, filter, stampUpdate(update, r.now(), config.upsert), updateOptions).Decode(doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if config.throwNotFound {
				return nil, r.notFound(config)
			}
			return nil, nil
		}
		return nil, r.translate(err)
	}
	return doc, nil
}

// FindOneAndDelete removes the first match and returns it.
func (r *Repository[T]) FindOneAndDelete(ctx context.Context, filter interface{}, opts ...FindOption) (*T, error) {
	config := r.findOptions(opts)
	doc := new(T)
	if err := r.collection.FindOneAndDelete(ctx, filter).Decode(doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if config.throwNotFound {
				return nil, r.notFound(config)
			}
			return nil, nil
		}
		return nil, r.translate(err)
	}
	return doc, nil
}

// UpdateMany applies update to every match and returns the number of modified documents.
func (r *Repository[T]) UpdateMany(ctx context.Context, filter interface{}, update bson.M) (int64, error) {
	result, err := r.collection.UpdateMany(ctx, filter, stampUpdate(update, r.now(), false))
	if err != nil {
		return 0, r.translate(err)
	}
	return result.ModifiedCount, nil
}

// Upsert updates the first match or inserts a new document, and returns the result.
func (r *Repository[T]) Upsert(ctx context.Context, filter interface{}, update bson.M) (*T, error) {
	return r.FindOneAndUpdate(ctx, filter, update, withUpsert())
}

// FindOneAndUpdateToday updates the match created within the last 24 hours, or starts a new
// document otherwise. The read and the write are separate operations.
func (r *Repository[T]) FindOneAndUpdateToday(ctx context.Context, filter bson.M, update bson.M) (*T, error) {
	var current struct {
		ID        primitive.ObjectID `bson:"_id"`
		CreatedAt time.Time          `bson:"createdAt"`
	}
	projection := options.FindOne().
		SetProjection(bson.M{"_id": 1, "createdAt": 1}).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})

	err := r.collection.FindOne(ctx, filter, projection).Decode(&current)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return r.Upsert(ctx, filter, update)
	case err != nil:
		return nil, r.translate(err)
	}

	if r.now().Sub(current.CreatedAt) < 24*time.Hour {
		return r.FindOneAndUpdate(ctx, bson.M{"_id": current.ID}, update)
	}

	fresh := bson.M{"_id": primitive.NewObjectID()}
	for key, value := range filter {
		if !strings.HasPrefix(key, "$") {
			fresh[key] = value
		}
	}
	return r.Upsert(ctx, fresh, update)
}

// Find returns every match.
func (r *Repository[T]) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, r.translate(err)
	}
	defer cursor.Close(ctx)

	docs := []T{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, r.translate(err)
	}
	return docs, nil
}

func (r *Repository[T]) Distinct(ctx context.Context, field string, filter interface{}) ([]interface{}, error) {
	values, err := r.collection.Distinct(ctx, field, filter)
	if err != nil {
		return nil, r.translate(err)
	}
	return values, nil
}

func (r *Repository[T]) Count(ctx context.Context, filter interface{}) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, r.translate(err)
	}
	return count, nil
}

// Aggregate runs pipeline and decodes every result into out, which must be a pointer to a slice.
func (r *Repository[T]) Aggregate(ctx context.Context, pipeline mongo.Pipeline, out interface{}) error {
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return r.translate(err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return r.translate(err)
	}
	return nil
}

// BulkWrite runs models in one batch. Any failure is reported as invalid data.
func (r *Repository[T]) BulkWrite(ctx context.Context, models []mongo.WriteModel) (*mongo.BulkWriteResult, error) {
	result, err := r.collection.BulkWrite(ctx, models)
	if err != nil {
		return nil, schemas.NewBadRequest(err.Error()).WithCause(err)
	}
	return result, nil
}

// Paginate lists documents through the pagination utility using this repository's search fields and key.
func (r *Repository[T]) Paginate(ctx context.Context, opts pagination.Options) *pagination.Result[T] {
	return pagination.Paginate[T](ctx, r.collection, opts, r.config.SearchFields, r.config.ReturnKey)
}

// stampUpdate wraps plain field updates in $set and maintains updatedAt, plus createdAt on insert.
func stampUpdate(update bson.M, now time.Time, upsert bool) bson.M {
	stamped := bson.M{}
	plain := bson.M{}
	for key, value := range update {
		if strings.HasPrefix(key, "$") {
			stamped[key] = value
		} else {
			plain[key] = value
		}
	}

	set := bson.M{}
	if existing, ok := stamped["$set"].(bson.M); ok {
		for key, value := range existing {
			set[key] = value
		}
	}
	for key, value := range plain {
		set[key] = value
	}
	set["updatedAt"] = now
	stamped["$set"] = set

	if upsert {
		setOnInsert := bson.M{}
		if existing, ok := stamped["$setOnInsert"].(bson.M); ok {
			for key, value := range existing {
				setOnInsert[key] = value
			}
		}
		if _, ok := set["createdAt"]; !ok {
			setOnInsert["createdAt"] = now
		}
		stamped["$setOnInsert"] = setOnInsert
	}
	return stamped
}
