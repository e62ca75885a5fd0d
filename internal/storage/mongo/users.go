package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pribylovaa/wishlist-service/internal/models"
	"github.com/pribylovaa/wishlist-service/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

// UserByID возвращает профиль пользователя из коллекции users.
func (m *Mongo) UserByID(ctx context.Context, id string) (*models.User, error) {
	const op = "storage/mongo/UserByID"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidID)
	}

	var doc userDoc
	if err := m.users.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.User{
		ID:    doc.ID.Hex(),
		Name:  doc.Name,
		Email: doc.Email,
	}, nil
}

// InsertUser сохраняет профиль. Занятый email -> storage.ErrConflict.
func (m *Mongo) InsertUser(ctx context.Context, u models.User) (*models.User, error) {
	const op = "storage/mongo/InsertUser"

	oid, err := objectIDOrNew(u.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidID)
	}

	doc := userDoc{ID: oid, Name: u.Name, Email: strings.ToLower(strings.TrimSpace(u.Email))}
	if _, err := m.users.InsertOne(ctx, doc); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrConflict)
		}

		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	return &models.User{ID: doc.ID.Hex(), Name: doc.Name, Email: doc.Email}, nil
}
