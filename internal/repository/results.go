package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/RishiKendai/plagiarism-control/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const runsCollection = "analysis_results"

type ResultsRepository struct {
	mongoRepo *MongoRepository
}

func NewResultsRepository(mongoRepo *MongoRepository) *ResultsRepository {
	return &ResultsRepository{
		mongoRepo: mongoRepo,
	}
}

func (r *ResultsRepository) InsertRun(ctx context.Context, run *models.AnalysisRun) error {
	err := r.mongoRepo.InsertOne(ctx, runsCollection, run)
	if err != nil {
		return fmt.Errorf("failed to insert analysis run: %w", err)
	}

	return nil
}

// GetLatestRun returns the most recent run, or nil when none exists
func (r *ResultsRepository) GetLatestRun(ctx context.Context) (*models.AnalysisRun, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "analysis_timestamp", Value: -1}})

	var run models.AnalysisRun
	err := r.mongoRepo.FindOne(ctx, runsCollection, bson.M{}, opts).Decode(&run)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find analysis run: %w", err)
	}

	return &run, nil
}
