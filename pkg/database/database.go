package database

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/lcplanner/pkg/util"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoInstance struct {
	Client   *mongo.Client
	Database *mongo.Database
}

var MongoGlobalInstance *MongoInstance

const defaultMongoConnectionString = "mongodb://localhost:27017/"
const defaultMongoDatabase = "lcplanner"
const connectTimeout = 30 * time.Second

// Connect opens the shared MongoDB connection and makes sure the station indexes exist
func Connect() error {
	connectionString := util.GetEnvironmentVariable("TRAVIGO_MONGODB_CONNECTION", defaultMongoConnectionString)
	dbName := util.GetEnvironmentVariable("TRAVIGO_MONGODB_DATABASE", defaultMongoDatabase)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(connectionString).
		SetAppName("lcplanner"))
	if err != nil {
		return err
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return err
	}

	MongoGlobalInstance = &MongoInstance{
		Client:   client,
		Database: client.Database(dbName),
	}

	createIndexes(ctx)

	log.Info().Str("database", dbName).Msg("MongoDB client setup")

	return nil
}

func Disconnect(ctx context.Context) {
	if MongoGlobalInstance == nil {
		return
	}

	if err := MongoGlobalInstance.Client.Disconnect(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to disconnect from MongoDB")
	}
	MongoGlobalInstance = nil
}

func GetCollection(collectionName string) *mongo.Collection {
	return MongoGlobalInstance.Database.Collection(collectionName)
}
