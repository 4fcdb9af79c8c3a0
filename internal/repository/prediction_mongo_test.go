package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/himanshu-dandle/telco-customer-churn/internal/models"
)

func TestPredictionRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	rec := models.PredictionRecord{
		ID:               "0b8f6f0e-4d0a-4f43-9d63-2f7f2d3c1a11",
		RequestID:        "req-1",
		ClientIP:         "10.0.0.1",
		Input:            models.ChurnRequest{TotalCharges: 1000, MonthlyCharges: 50, Tenure: 12, PaymentMethod: 1},
		ChurnPrediction:  1,
		ChurnProbability: 0.5866,
		ResponseTime:     0.0012,
		Model:            "xgboost_model_v5.json",
		CreatedAt:        time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	mt.Run("record success", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		repo := NewPredictionRepository(mt.DB, time.Second)
		require.NoError(mt, repo.Record(context.Background(), rec))
	})

	mt.Run("record duplicate key", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		repo := NewPredictionRepository(mt.DB, time.Second)
		err := repo.Record(context.Background(), rec)
		require.Error(mt, err)
		assert.True(mt, mongo.IsDuplicateKeyError(err))
	})

	mt.Run("recent", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + "predictions"
		first := mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: rec.ID},
			{Key: "request_id", Value: rec.RequestID},
			{Key: "churn_prediction", Value: rec.ChurnPrediction},
			{Key: "churn_probability", Value: rec.ChurnProbability},
			{Key: "created_at", Value: rec.CreatedAt},
		})
		done := mtest.CreateCursorResponse(0, ns, mtest.NextBatch)
		mt.AddMockResponses(first, done)

		repo := NewPredictionRepository(mt.DB, time.Second)
		got, err := repo.Recent(context.Background(), 10)
		require.NoError(mt, err)
		require.Len(mt, got, 1)
		assert.Equal(mt, rec.ID, got[0].ID)
		assert.Equal(mt, 1, got[0].ChurnPrediction)
		assert.Equal(mt, 0.5866, got[0].ChurnProbability)
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		repo := NewPredictionRepository(mt.DB, time.Second)
		assert.NoError(mt, repo.EnsureIndexes(context.Background()))
	})
}
