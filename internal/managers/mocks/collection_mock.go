package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MockCollection is a mock of interfaces.MongoCollectionIface.
// Option arguments are not forwarded to Called, so expectations only list ctx, filter and update.
type MockCollection struct {
	mock.Mock
	CollectionName string
}

func (m *MockCollection) Name() string {
	return m.CollectionName
}

func (m *MockCollection) InsertOne(ctx context.Context, document interface{}, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	args := m.Called(ctx, document)
	result, _ := args.Get(0).(*mongo.InsertOneResult)
	return result, args.Error(1)
}

func (m *MockCollection) InsertMany(ctx context.Context, documents []interface{}, _ ...*options.InsertManyOptions) (*mongo.InsertManyResult, error) {
	args := m.Called(ctx, documents)
	result, _ := args.Get(0).(*mongo.InsertManyResult)
	return result, args.Error(1)
}

func (m *MockCollection) DeleteOne(ctx context.Context, filter interface{}, _ ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	args := m.Called(ctx, filter)
	result, _ := args.Get(0).(*mongo.DeleteResult)
	return result, args.Error(1)
}

func (m *MockCollection) DeleteMany(ctx context.Context, filter interface{}, _ ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	args := m.Called(ctx, filter)
	result, _ := args.Get(0).(*mongo.DeleteResult)
	return result, args.Error(1)
}

func (m *MockCollection) FindOne(ctx context.Context, filter interface{}, _ ...*options.FindOneOptions) *mongo.SingleResult {
	args := m.Called(ctx, filter)
	return args.Get(0).(*mongo.SingleResult)
}

func (m *MockCollection) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, _ ...*options.FindOneAndUpdateOptions) *mongo.SingleResult {
	args := m.Called(ctx, filter, update)
	return args.Get(0).(*mongo.SingleResult)
}

func (m *MockCollection) FindOneAndDelete(ctx context.Context, filter interface{}, _ ...*options.FindOneAndDeleteOptions) *mongo.SingleResult {
	args := m.Called(ctx, filter)
	return args.Get(0).(*mongo.SingleResult)
}

func (m *MockCollection) UpdateMany(ctx context.Context, filter interface{}, update interface{}, _ ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	args := m.Called(ctx, filter, update)
	result, _ := args.Get(0).(*mongo.UpdateResult)
	return result, args.Error(1)
}

func (m *MockCollection) Find(ctx context.Context, filter interface{}, _ ...*options.FindOptions) (*mongo.Cursor, error) {
	args := m.Called(ctx, filter)
	cursor, _ := args.Get(0).(*mongo.Cursor)
	return cursor, args.Error(1)
}

func (m *MockCollection) Distinct(ctx context.Context, fieldName string, filter interface{}, _ ...*options.DistinctOptions) ([]interface{}, error) {
	args := m.Called(ctx, fieldName, filter)
	values, _ := args.Get(0).([]interface{})
	return values, args.Error(1)
}

func (m *MockCollection) CountDocuments(ctx context.Context, filter interface{}, _ ...*options.CountOptions) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCollection) Aggregate(ctx context.Context, pipeline interface{}, _ ...*options.AggregateOptions) (*mongo.Cursor, error) {
	args := m.Called(ctx, pipeline)
	cursor, _ := args.Get(0).(*mongo.Cursor)
	return cursor, args.Error(1)
}

func (m *MockCollection) BulkWrite(ctx context.Context, models []mongo.WriteModel, _ ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error) {
	args := m.Called(ctx, models)
	result, _ := args.Get(0).(*mongo.BulkWriteResult)
	return result, args.Error(1)
}
