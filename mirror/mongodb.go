package mirror

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chainstamp/ChainStamp/log"
	"github.com/chainstamp/ChainStamp/params"
)

const (
	tbRecords = "Records"

	mongoConnectTimeout = 10 * time.Second
	mongoOpTimeout      = 10 * time.Second
)

var _ Store = (*mongoStore)(nil)

// mongoStore mirrors records into a single mongodb collection keyed by
// the record digest.
type mongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoRecord struct {
	Key   string `bson:"_id"`
	Value []byte `bson:"value"`
}

// NewMongoDBStore connects to the configured mongodb server.
func NewMongoDBStore(cfg *params.MongoDBConfig) (Store, error) {
	if cfg == nil {
		return nil, errors.New("nil mongodb config")
	}
	url := cfg.DBURL
	if !strings.HasPrefix(url, "mongodb://") && !strings.HasPrefix(url, "mongodb+srv://") {
		url = "mongodb://" + url
	}
	opts := options.Client().ApplyURI(url)
	if cfg.UserName != "" || cfg.Password != "" {
		opts.SetAuth(options.Credential{
			AuthSource: cfg.DBName,
			Username:   cfg.UserName,
			Password:   cfg.Password,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	defer cancel()
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	log.Info("open mirror database", "backend", "mongodb", "dbName", cfg.DBName)
	return &mongoStore{
		client: client,
		coll:   client.Database(cfg.DBName).Collection(tbRecords),
	}, nil
}

func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), mongoOpTimeout)
}

// Put upserts the value under key, overwriting any previous entry.
func (m *mongoStore) Put(key string, value []byte) error {
	ctx, cancel := opCtx()
	defer cancel()
	_, err := m.coll.ReplaceOne(ctx,
		bson.M{"_id": key},
		&mongoRecord{Key: key, Value: value},
		options.Replace().SetUpsert(true))
	return err
}

// Get retrieves the value under key. Missing keys report ErrNotFound.
func (m *mongoStore) Get(key string) ([]byte, error) {
	ctx, cancel := opCtx()
	defer cancel()
	var rec mongoRecord
	err := m.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec.Value, nil
}

// Has reports whether key has a mirror entry.
func (m *mongoStore) Has(key string) (bool, error) {
	ctx, cancel := opCtx()
	defer cancel()
	count, err := m.coll.CountDocuments(ctx, bson.M{"_id": key}, options.Count().SetLimit(1))
	return count > 0, err
}

// Delete removes the entry under key. Deleting a missing key is not an
// error.
func (m *mongoStore) Delete(key string) error {
	ctx, cancel := opCtx()
	defer cancel()
	_, err := m.coll.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

// Close disconnects from the server.
func (m *mongoStore) Close() error {
	ctx, cancel := opCtx()
	defer cancel()
	return m.client.Disconnect(ctx)
}
