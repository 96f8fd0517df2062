package services

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ShadowYIG/hctf-backend/internal/models"
)

// MongoAuditService keeps the audit trail in the audit_events collection.
type MongoAuditService struct {
	client *mongo.Client
	col    *mongo.Collection
}

func NewMongoAuditService(ctx context.Context, mongoURI, dbName string) (*MongoAuditService, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	col := client.Database(dbName).Collection("audit_events")

	// Best-effort indexes.
	_, _ = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "at", Value: -1}}},
		{Keys: bson.D{{Key: "action", Value: 1}, {Key: "at", Value: -1}}},
		{Keys: bson.D{{Key: "targets", Value: 1}}},
	})

	log.Printf("MongoDB audit trail connected: db=%s", dbName)
	return &MongoAuditService{client: client, col: col}, nil
}

func (s *MongoAuditService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Record stores the event. Failures are logged and never reach the caller.
func (s *MongoAuditService) Record(ctx context.Context, event models.AuditEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if _, err := s.col.InsertOne(ctx, event); err != nil {
		log.Printf("[Audit] mongo insert failed id=%s action=%s err=%v", event.ID, event.Action, err)
	}
}
