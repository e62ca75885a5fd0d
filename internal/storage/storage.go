//go:generate mockgen -source=./storage.go -destination=../../mocks/storage.go -package=mocks
package storage

import (
	"context"
	"errors"

	"github.com/pribylovaa/wishlist-service/internal/models"
)

var (
	// ErrNotFound — вишлист, товар или пользователь отсутствует в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrInvalidID — идентификатор не является корректным ObjectID.
	ErrInvalidID = errors.New("invalid id")
	// ErrConflict — запись не удалось применить из-за параллельных изменений.
	ErrConflict = errors.New("conflict")
)

// Storage описывает операции над деревом вишлиста (Wishlist → Product → Comment/Reaction).
// Все мутации — атомарные обновления одного документа MongoDB.
type Storage interface {
	// AppendComment добавляет комментарий в конец товара productID вишлиста wishlistID.
	// Хранилище выставляет ID и CreatedAt, Text и Author берутся из входа как есть.
	// Совпадение ищется по _id вишлиста И _id вложенного товара.
	// Возможные ошибки: ErrInvalidID, ErrNotFound.
	AppendComment(ctx context.Context, wishlistID, productID string, c models.Comment) (*models.Comment, error)

	// AddReaction учитывает реакцию emoji пользователя userID на товаре.
	// Повторная реакция того же пользователя тем же эмодзи ничего не меняет (ReactionUnchanged).
	// Возможные ошибки: ErrInvalidID, ErrNotFound, ErrConflict.
	AddReaction(ctx context.Context, wishlistID, productID, userID, emoji string) (models.ReactionOutcome, error)

	// WishlistByID возвращает вишлист целиком.
	// Возможные ошибки: ErrInvalidID, ErrNotFound.
	WishlistByID(ctx context.Context, id string) (*models.Wishlist, error)

	// UserByID возвращает профиль пользователя.
	// Возможные ошибки: ErrInvalidID, ErrNotFound.
	UserByID(ctx context.Context, id string) (*models.User, error)
}
