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

const filesCollection = "files"

type FilesRepository struct {
	mongoRepo *MongoRepository
}

func NewFilesRepository(mongoRepo *MongoRepository) *FilesRepository {
	return &FilesRepository{
		mongoRepo: mongoRepo,
	}
}

func (r *FilesRepository) InsertFile(ctx context.Context, file *models.FileMetadata) error {
	err := r.mongoRepo.InsertOne(ctx, filesCollection, file)
	if err != nil {
		return fmt.Errorf("failed to insert file metadata: %w", err)
	}

	return nil
}

// ListFiles returns every stored notebook in upload order
func (r *FilesRepository) ListFiles(ctx context.Context) ([]*models.FileMetadata, error) {
	opts := options.Find().SetSort(bson.D{{Key: "upload_order", Value: 1}})

	cursor, err := r.mongoRepo.FindMany(ctx, filesCollection, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find files: %w", err)
	}
	defer cursor.Close(ctx)

	files := []*models.FileMetadata{}
	if err := cursor.All(ctx, &files); err != nil {
		return nil, fmt.Errorf("failed to decode files: %w", err)
	}

	return files, nil
}

func (r *FilesRepository) GetFile(ctx context.Context, id string) (*models.FileMetadata, error) {
	filter := bson.M{"id": id}

	var file models.FileMetadata
	err := r.mongoRepo.FindOne(ctx, filesCollection, filter).Decode(&file)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find file: %w", err)
	}

	return &file, nil
}

func (r *FilesRepository) DeleteFile(ctx context.Context, id string) error {
	deleted, err := r.mongoRepo.DeleteOne(ctx, filesCollection, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}

	return nil
}

func (r *FilesRepository) CountFiles(ctx context.Context) (int64, error) {
	count, err := r.mongoRepo.CountDocuments(ctx, filesCollection, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}

	return count, nil
}
