package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/RishiKendai/plagiarism-control/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const adminsCollection = "admins"

type AdminsRepository struct {
	mongoRepo *MongoRepository
}

func NewAdminsRepository(mongoRepo *MongoRepository) *AdminsRepository {
	return &AdminsRepository{
		mongoRepo: mongoRepo,
	}
}

// InsertAdmin stores a new account; ErrDuplicate when the username is taken
func (r *AdminsRepository) InsertAdmin(ctx context.Context, admin *models.Admin) error {
	err := r.mongoRepo.InsertOne(ctx, adminsCollection, admin)
	if errors.Is(err, ErrDuplicate) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to insert admin: %w", err)
	}

	return nil
}

func (r *AdminsRepository) GetAdminByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var admin models.Admin
	err := r.mongoRepo.FindOne(ctx, adminsCollection, bson.M{"username": username}).Decode(&admin)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}

	return &admin, nil
}
