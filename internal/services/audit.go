package services

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/evently-hq/evently-backend/internal/database"
	"github.com/evently-hq/evently-backend/internal/models"
)

// auditCollection is the Mongo collection holding the demerit audit trail.
const auditCollection = "demerit_audit"

// RecordDemeritAudit writes an audit entry for a ledger or appeal mutation.
// Best effort: the trail must never fail the operation it records, so errors
// are logged and dropped. No-op when Mongo is not connected (tests, dev).
func RecordDemeritAudit(entry models.DemeritAuditEntry) {
	if database.DB == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now().UTC()

	if _, err := database.DB.Collection(auditCollection).InsertOne(ctx, entry); err != nil {
		log.Printf("failed to record demerit audit entry: %v", err)
	}
}

// GetDemeritAudit returns audit entries, newest first, optionally filtered by
// user. limit <= 0 defaults to 100.
func GetDemeritAudit(ctx context.Context, userID string, limit int64) ([]models.DemeritAuditEntry, error) {
	if database.DB == nil {
		return []models.DemeritAuditEntry{}, nil
	}
	if limit <= 0 {
		limit = 100
	}

	filter := bson.M{}
	if userID != "" {
		filter["user_id"] = userID
	}

	findOptions := options.Find()
	findOptions.SetSort(bson.M{"created_at": -1})
	findOptions.SetLimit(limit)

	cursor, err := database.DB.Collection(auditCollection).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []models.DemeritAuditEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// EnsureAuditIndexes creates the indexes the audit queries rely on.
func EnsureAuditIndexes(ctx context.Context) error {
	if database.DB == nil {
		return nil
	}
	_, err := database.DB.Collection(auditCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	return err
}
