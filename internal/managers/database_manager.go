// Package managers wraps the external systems the processes talk to: the document store,
// the RPC queue, token signing and mail delivery.
package managers

import (
	"context"
	"fmt"
	"time"

	"diagram-hub/internal/interfaces"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DatabaseMgr defines the interface for database management.
// It hands out collections of the configured database.
type DatabaseMgr interface {
	Collection(name string) interfaces.MongoCollectionIface
	EnsureUniqueIndexes(ctx context.Context, collection string, fields ...string) error
	Ping(ctx context.Context) error
	Disconnect(ctx context.Context) error
}

// DatabaseManager is responsible for managing the MongoDB client.
type DatabaseManager struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// NewDatabaseManager connects to uri and verifies the connection with a ping.
func NewDatabaseManager(ctx context.Context, uri, database string, timeout time.Duration) (DatabaseMgr, error) {
	log.Info("Initializing database manager")

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri).SetTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	log.Info("Connected to mongoDB successfully")
	return &DatabaseManager{Client: client, Database: client.Database(database)}, nil
}

func (dbMgr *DatabaseManager) Collection(name string) interfaces.MongoCollectionIface {
	return dbMgr.Database.Collection(name)
}

// EnsureUniqueIndexes creates one unique ascending index per field.
func (dbMgr *DatabaseManager) EnsureUniqueIndexes(ctx context.Context, collection string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}

	models := make([]mongo.IndexModel, 0, len(fields))
	for _, field := range fields {
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true),
		})
	}

	if _, err := dbMgr.Database.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create indexes on %s: %w", collection, err)
	}
	log.Infof("Ensured unique indexes %v on %s", fields, collection)
	return nil
}

func (dbMgr *DatabaseManager) Ping(ctx context.Context) error {
	return dbMgr.Client.Ping(ctx, nil)
}

func (dbMgr *DatabaseManager) Disconnect(ctx context.Context) error {
	return dbMgr.Client.Disconnect(ctx)
}
