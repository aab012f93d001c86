package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kriugm/kri-services/internal/comm"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const BacklogCollection = "attendance_backlog"

// ConnectToDB connects to the database named in the path of mongoURI.
func ConnectToDB(ctx context.Context, mongoURI string) (*mongo.Database, error) {
	uri, err := url.Parse(mongoURI)
	if err != nil {
		return nil, fmt.Errorf("parse mongodb uri: %w", err)
	}

	dbName := strings.TrimPrefix(uri.Path, "/")
	if dbName == "" {
		dbName = "kri"
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return client.Database(dbName), nil
}

func CreateTTLIndexForCollection(ctx context.Context, db *mongo.Database, collectionName string) error {
	collection := db.Collection(collectionName)

	indexModel := mongo.IndexModel{
		Keys:    bson.M{"expires_at": 1},
		Options: options.Index().SetExpireAfterSeconds(0), // expire at the document's expires_at
	}

	_, err := collection.Indexes().CreateOne(ctx, indexModel)
	return err
}

type backlogDoc struct {
	comm.ScanEvent `bson:",inline"`
	ExpiresAt      time.Time `bson:"expires_at"`
}

// Backlog keeps recent scan events so new monitor clients can catch up.
// Mongo's TTL monitor removes events once their ttl has passed.
type Backlog struct {
	coll *mongo.Collection
	ttl  time.Duration
}

func NewBacklog(ctx context.Context, db *mongo.Database, ttl time.Duration) (*Backlog, error) {
	if err := CreateTTLIndexForCollection(ctx, db, BacklogCollection); err != nil {
		return nil, fmt.Errorf("create ttl index: %w", err)
	}
	return &Backlog{coll: db.Collection(BacklogCollection), ttl: ttl}, nil
}

func (b *Backlog) Add(ctx context.Context, e comm.ScanEvent) error {
	_, err := b.coll.InsertOne(ctx, backlogDoc{ScanEvent: e, ExpiresAt: e.At.Add(b.ttl)})
	return err
}

// Recent returns up to n events, oldest first.
func (b *Backlog) Recent(ctx context.Context, n int) ([]comm.ScanEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "at", Value: -1}, {Key: "entry_id", Value: -1}}).
		SetLimit(int64(n))

	cur, err := b.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []backlogDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	events := make([]comm.ScanEvent, len(docs))
	for i, d := range docs {
		events[len(docs)-1-i] = d.ScanEvent
	}
	log.Debugf("backlog returned %d events", len(events))
	return events, nil
}
