package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type UserRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewUserRepository(db *mongo.Database, log *logger.Logger) *UserRepository {
	return &UserRepository{
		collection: db.Collection("users"),
		logger:     log.Named("mongo-users"),
	}
}

// GetProfile loads the fields that make up a seller snapshot.
func (r *UserRepository) GetProfile(ctx context.Context, userID string) (*domain.CurrentUser, error) {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		r.logger.Info("UserRepository.GetProfile: invalid user id", zap.String("user_id", userID))
		return nil, domain.ErrUserNotFound
	}

	var doc userDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		r.logger.Error("UserRepository.GetProfile: lookup failed", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to find user %s: %w", userID, err)
	}
	return toDomainUser(&doc), nil
}
