package mocks

import (
	"context"

	"diagram-hub/internal/pagination"
	"diagram-hub/internal/repository"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MockStore is a mock of repository.Store. Find options are not forwarded to Called.
type MockStore[T any] struct {
	mock.Mock
}

func (m *MockStore[T]) Create(ctx context.Context, doc *T) (*T, error) {
	args := m.Called(ctx, doc)
	result, _ := args.Get(0).(*T)
	return result, args.Error(1)
}

func (m *MockStore[T]) CreateMany(ctx context.Context, docs []*T) ([]*T, error) {
	args := m.Called(ctx, docs)
	result, _ := args.Get(0).([]*T)
	return result, args.Error(1)
}

func (m *MockStore[T]) Delete(ctx context.Context, filter interface{}) error {
	args := m.Called(ctx, filter)
	return args.Error(0)
}

func (m *MockStore[T]) DeleteWithoutException(ctx context.Context, filter interface{}) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore[T]) DeleteMany(ctx context.Context, filter bson.M, ids []interface{}, column string) (int64, error) {
	args := m.Called(ctx, filter, ids, column)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore[T]) DeleteManyWithoutException(ctx context.Context, filter bson.M, ids []interface{}, column string) (int64, error) {
	args := m.Called(ctx, filter, ids, column)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore[T]) FindOne(ctx context.Context, filter interface{}, _ ...repository.FindOption) (*T, error) {
	args := m.Called(ctx, filter)
	result, _ := args.Get(0).(*T)
	return result, args.Error(1)
}

func (m *MockStore[T]) FindOneWithoutException(ctx context.Context, filter interface{}, _ ...repository.FindOption) *T {
	args := m.Called(ctx, filter)
	result, _ := args.Get(0).(*T)
	return result
}

func (m *MockStore[T]) FindOneAndUpdate(ctx context.Context, filter interface{}, update bson.M, _ ...repository.FindOption) (*T, error) {
	args := m.Called(ctx, filter, update)
	result, _ := args.Get(0).(*T)
	return result, args.Error(1)
}

func (m *MockStore[T]) FindOneAndDelete(ctx context.Context, filter interface{}, _ ...repository.FindOption) (*T, error) {
	args := m.Called(ctx, filter)
	result, _ := args.Get(0).(*T)
	return result, args.Error(1)
}

func (m *MockStore[T]) UpdateMany(ctx context.Context, filter interface{}, update bson.M) (int64, error) {
	args := m.Called(ctx, filter, update)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore[T]) Upsert(ctx context.Context, filter interface{}, update bson.M) (*T, error) {
	args := m.Called(ctx, filter, update)
	result, _ := args.Get(0).(*T)
	return result, args.Error(1)
}

func (m *MockStore[T]) FindOneAndUpdateToday(ctx context.Context, filter bson.M, update bson.M) (*T, error) {
	args := m.Called(ctx, filter, update)
	result, _ := args.Get(0).(*T)
	return result, args.Error(1)
}

func (m *MockStore[T]) Find(ctx context.Context, filter interface{}, _ ...*options.FindOptions) ([]T, error) {
	args := m.Called(ctx, filter)
	result, _ := args.Get(0).([]T)
	return result, args.Error(1)
}

func (m *MockStore[T]) Distinct(ctx context.Context, field string, filter interface{}) ([]interface{}, error) {
	args := m.Called(ctx, field, filter)
	result, _ := args.Get(0).([]interface{})
	return result, args.Error(1)
}

func (m *MockStore[T]) Count(ctx context.Context, filter interface{}) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// Aggregate leaves out untouched; expectations fill it through Run.
func (m *MockStore[T]) Aggregate(ctx context.Context, pipeline mongo.Pipeline, out interface{}) error {
	args := m.Called(ctx, pipeline, out)
	return args.Error(0)
}

func (m *MockStore[T]) BulkWrite(ctx context.Context, models []mongo.WriteModel) (*mongo.BulkWriteResult, error) {
	args := m.Called(ctx, models)
	result, _ := args.Get(0).(*mongo.BulkWriteResult)
	return result, args.Error(1)
}

func (m *MockStore[T]) Paginate(ctx context.Context, opts pagination.Options) *pagination.Result[T] {
	args := m.Called(ctx, opts)
	return args.Get(0).(*pagination.Result[T])
}
