package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/himanshu-dandle/telco-customer-churn/internal/models"
)

// PredictionRepository provides Mongo-backed persistence for served predictions.
type PredictionRepository struct {
	col     *mongo.Collection
	timeout time.Duration
}

// NewPredictionRepository returns a PredictionRepository that operates on the
// "predictions" collection. Each write is bounded by timeout.
func NewPredictionRepository(db *mongo.Database, timeout time.Duration) *PredictionRepository {
	return &PredictionRepository{
		col:     db.Collection("predictions"),
		timeout: timeout,
	}
}

// EnsureIndexes creates the created_at index used for time-range queries.
func (r *PredictionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: -1}},
		Options: options.Index().SetName("created_at_desc"),
	})
	if err != nil {
		return fmt.Errorf("create predictions index: %w", err)
	}
	return nil
}

// Record inserts one prediction document.
func (r *PredictionRepository) Record(ctx context.Context, rec models.PredictionRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert prediction %s: %w", rec.ID, err)
	}
	log.Debug().Str("id", rec.ID).Str("request_id", rec.RequestID).Msg("[Prediction Repository] prediction recorded")
	return nil
}

// Recent returns up to limit predictions, newest first.
func (r *PredictionRepository) Recent(ctx context.Context, limit int64) ([]models.PredictionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("find predictions: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.PredictionRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode predictions: %w", err)
	}
	return out, nil
}
