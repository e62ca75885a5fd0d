package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pribylovaa/wishlist-service/internal/models"
	"github.com/pribylovaa/wishlist-service/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// parseTarget разбирает пару «вишлист + товар».
func parseTarget(wishlistID, productID string) (primitive.ObjectID, primitive.ObjectID, error) {
	wid, err := primitive.ObjectIDFromHex(strings.TrimSpace(wishlistID))
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, storage.ErrInvalidID
	}

	pid, err := primitive.ObjectIDFromHex(strings.TrimSpace(productID))
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, storage.ErrInvalidID
	}

	return wid, pid, nil
}

// AppendComment дописывает комментарий в конец products.$.comments.
// Фильтр — составное совпадение по _id вишлиста и products._id,
// поэтому остальные товары документа не затрагиваются.
// MatchedCount == 0 -> storage.ErrNotFound.
func (m *Mongo) AppendComment(ctx context.Context, wishlistID, productID string, c models.Comment) (*models.Comment, error) {
	const op = "storage/mongo/AppendComment"

	wid, pid, err := parseTarget(wishlistID, productID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	authorID, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Author.ID))
	if err != nil {
		return nil, fmt.Errorf("%s: author: %w", op, storage.ErrInvalidID)
	}

	now := toMS(time.Now())
	doc := commentDoc{
		ID:   primitive.NewObjectID(),
		Text: c.Text,
		Author: authorDoc{
			ID:    authorID,
			Name:  c.Author.Name,
			Email: c.Author.Email,
		},
		CreatedAt: now,
	}

	filter := bson.D{
		{Key: "_id", Value: wid},
		{Key: "products._id", Value: pid},
	}
	update := bson.D{
		{Key: "$push", Value: bson.D{{Key: "products.$.comments", Value: doc}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: now}}},
	}

	res, err := m.wishlists.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if res.MatchedCount == 0 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	out := doc.toModel()
	return &out, nil
}

// AddReaction учитывает реакцию в два условных атомарных шага:
//  1. инкремент корзины с этим эмодзи, если пользователя в ней ещё нет;
//  2. создание корзины {emoji, 1, [user]}, если корзины с этим эмодзи у товара нет.
//
// Оба шага — одиночные обновления документа с условием в фильтре,
// поэтому параллельные первые реакции не создают дубликатов корзины.
// Если ни один шаг не сработал, состояние товара читается один раз:
// товара нет -> ErrNotFound, пользователь уже в корзине -> ReactionUnchanged,
// корзина появилась параллельно -> следующая попытка.
// После cfg.Limits.ReactionAttempts попыток -> ErrConflict.
func (m *Mongo) AddReaction(ctx context.Context, wishlistID, productID, userID, emoji string) (models.ReactionOutcome, error) {
	const op = "storage/mongo/AddReaction"

	wid, pid, err := parseTarget(wishlistID, productID)
	if err != nil {
		return models.ReactionUnchanged, fmt.Errorf("%s: %w", op, err)
	}

	uid, err := primitive.ObjectIDFromHex(strings.TrimSpace(userID))
	if err != nil {
		return models.ReactionUnchanged, fmt.Errorf("%s: user: %w", op, storage.ErrInvalidID)
	}

	attempts := m.cfg.Limits.ReactionAttempts
	if attempts <= 0 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		ok, err := m.incrementReaction(ctx, wid, pid, uid, emoji)
		if err != nil {
			return models.ReactionUnchanged, fmt.Errorf("%s: increment: %w", op, err)
		}

		if ok {
			return models.ReactionIncremented, nil
		}

		ok, err = m.createReaction(ctx, wid, pid, uid, emoji)
		if err != nil {
			return models.ReactionUnchanged, fmt.Errorf("%s: create: %w", op, err)
		}

		if ok {
			return models.ReactionCreated, nil
		}

		st, err := m.reactionState(ctx, wid, pid, uid, emoji)
		if err != nil {
			return models.ReactionUnchanged, fmt.Errorf("%s: %w", op, err)
		}

		switch st {
		case reactionProductMissing:
			return models.ReactionUnchanged, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		case reactionUserPresent:
			return models.ReactionUnchanged, nil
		}
	}

	return models.ReactionUnchanged, fmt.Errorf("%s: %w", op, storage.ErrConflict)
}

// incrementReaction — шаг 1: $inc count и $push users в корзине эмодзи без этого пользователя.
func (m *Mongo) incrementReaction(ctx context.Context, wid, pid, uid primitive.ObjectID, emoji string) (bool, error) {
	filter := bson.D{
		{Key: "_id", Value: wid},
		{Key: "products", Value: bson.D{{Key: "$elemMatch", Value: bson.D{
			{Key: "_id", Value: pid},
			{Key: "reactions", Value: bson.D{{Key: "$elemMatch", Value: bson.D{
				{Key: "emoji", Value: emoji},
				{Key: "users", Value: bson.D{{Key: "$ne", Value: uid}}},
			}}}},
		}}}},
	}
	update := bson.D{
		{Key: "$inc", Value: bson.D{{Key: "products.$[p].reactions.$[r].count", Value: 1}}},
		{Key: "$push", Value: bson.D{{Key: "products.$[p].reactions.$[r].users", Value: uid}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: toMS(time.Now())}}},
	}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.D{{Key: "p._id", Value: pid}},
			bson.D{
				{Key: "r.emoji", Value: emoji},
				{Key: "r.users", Value: bson.D{{Key: "$ne", Value: uid}}},
			},
		},
	})

	res, err := m.wishlists.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return false, err
	}

	return res.MatchedCount > 0, nil
}

// createReaction — шаг 2: $push новой корзины, только если у товара нет корзины с этим эмодзи.
func (m *Mongo) createReaction(ctx context.Context, wid, pid, uid primitive.ObjectID, emoji string) (bool, error) {
	filter := bson.D{
		{Key: "_id", Value: wid},
		{Key: "products", Value: bson.D{{Key: "$elemMatch", Value: bson.D{
			{Key: "_id", Value: pid},
			{Key: "reactions.emoji", Value: bson.D{{Key: "$ne", Value: emoji}}},
		}}}},
	}
	update := bson.D{
		{Key: "$push", Value: bson.D{{Key: "products.$.reactions", Value: reactionDoc{
			Emoji: emoji,
			Count: 1,
			Users: []primitive.ObjectID{uid},
		}}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: toMS(time.Now())}}},
	}

	res, err := m.wishlists.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}

	return res.MatchedCount > 0, nil
}

type reactionStatus int

const (
	reactionProductMissing reactionStatus = iota
	reactionUserPresent
	reactionBucketWithoutUser
)

// reactionState читает только адресованный товар (позиционная проекция products.$).
func (m *Mongo) reactionState(ctx context.Context, wid, pid, uid primitive.ObjectID, emoji string) (reactionStatus, error) {
	var out struct {
		Products []struct {
			ID        primitive.ObjectID `bson:"_id"`
			Reactions []reactionDoc      `bson:"reactions"`
		} `bson:"products"`
	}

	filter := bson.D{
		{Key: "_id", Value: wid},
		{Key: "products._id", Value: pid},
	}
	opts := options.FindOne().SetProjection(bson.D{{Key: "products.$", Value: 1}})

	if err := m.wishlists.FindOne(ctx, filter, opts).Decode(&out); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return reactionProductMissing, nil
		}

		return reactionProductMissing, fmt.Errorf("find product: %w", err)
	}

	if len(out.Products) == 0 {
		return reactionProductMissing, nil
	}

	for _, r := range out.Products[0].Reactions {
		if r.Emoji != emoji {
			continue
		}

		for _, u := range r.Users {
			if u == uid {
				return reactionUserPresent, nil
			}
		}
	}

	return reactionBucketWithoutUser, nil
}

// WishlistByID возвращает вишлист целиком.
// Некорректный id -> storage.ErrInvalidID, отсутствие -> storage.ErrNotFound.
func (m *Mongo) WishlistByID(ctx context.Context, id string) (*models.Wishlist, error) {
	const op = "storage/mongo/WishlistByID"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidID)
	}

	var doc wishlistDoc
	if err := m.wishlists.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	w, err := doc.toModel()
	if err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}

	return w, nil
}

// InsertWishlist сохраняет вишлист целиком и возвращает его с присвоенными идентификаторами.
// CRUD вишлистов живёт вне сервиса; метод нужен для начального наполнения и тестов.
func (m *Mongo) InsertWishlist(ctx context.Context, w models.Wishlist) (*models.Wishlist, error) {
	const op = "storage/mongo/InsertWishlist"

	doc, err := wishlistFromModel(w)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, storage.ErrInvalidID, err)
	}

	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = toMS(time.Now())
	}

	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}

	if _, err := m.wishlists.InsertOne(ctx, doc); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrConflict)
		}

		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	out, err := doc.toModel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}
