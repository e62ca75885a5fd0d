package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/pribylovaa/wishlist-service/internal/models"
	"github.com/pribylovaa/wishlist-service/internal/pkg/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Входные структуры сервисного слоя.

// AppendCommentInput — комментарий к товару вишлиста.
// Session обязательна: автор берётся из неё снимком значений.
type AppendCommentInput struct {
	WishlistID string
	ProductID  string
	Session    *models.Session
	Text       string
}

// AddReactionInput — реакция эмодзи на товар вишлиста.
type AddReactionInput struct {
	WishlistID string
	ProductID  string
	Session    *models.Session
	Emoji      string
}

// AppendComment — бизнес-операция добавления комментария.
//
// Валидация (в этом порядке):
//   - нет сессии -> ErrUnauthenticated;
//   - Text нормализуется (TrimSpace), пусто -> ErrEmptyText, длиннее лимита -> ErrTextTooLong;
//   - WishlistID/ProductID не ObjectID -> ErrInvalidID.
//
// Ошибки стораджа: ErrNotFound (товар не найден в вишлисте), ErrInternal.
func (s *Service) AppendComment(ctx context.Context, in AppendCommentInput) (*models.Comment, error) {
	const op = "service/wishlists/AppendComment"

	if !hasSession(in.Session) {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	lg := log.From(ctx).With(
		slog.String("op", op),
		slog.String("user_id", in.Session.UserID),
		slog.String("wishlist_id", in.WishlistID),
		slog.String("product_id", in.ProductID),
	)

	text := strings.TrimSpace(in.Text)
	if text == "" {
		lg.Warn("invalid argument: empty text")
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyText)
	}

	if limit := s.cfg.Limits.CommentMaxLen; limit > 0 && utf8.RuneCountInString(text) > limit {
		lg.Warn("invalid argument: text too long", slog.Int("max", limit))
		return nil, fmt.Errorf("%s: %w", op, ErrTextTooLong)
	}

	if !validIDs(in.WishlistID, in.ProductID) {
		lg.Warn("invalid argument: malformed id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidID)
	}

	comment, err := s.storage.AppendComment(ctx, in.WishlistID, in.ProductID, models.Comment{
		Text:   text,
		Author: in.Session.Author(),
	})
	if err != nil {
		return nil, mapStorageErr(ctx, op, lg, err)
	}

	s.metrics.IncComment()
	lg.Info("comment_appended", slog.String("comment_id", comment.ID))

	return comment, nil
}

// AddReaction — бизнес-операция реакции эмодзи.
//
// Валидация: сессия, Emoji (TrimSpace, пусто -> ErrEmptyEmoji, длиннее лимита -> ErrEmojiTooLong), id.
// Повторная реакция того же пользователя тем же эмодзи — успех без изменений (ReactionUnchanged).
// Ошибки стораджа: ErrNotFound, ErrConflict (гонка не разрешилась за отведённые попытки), ErrInternal.
func (s *Service) AddReaction(ctx context.Context, in AddReactionInput) (models.ReactionOutcome, error) {
	const op = "service/wishlists/AddReaction"

	if !hasSession(in.Session) {
		return models.ReactionUnchanged, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	lg := log.From(ctx).With(
		slog.String("op", op),
		slog.String("user_id", in.Session.UserID),
		slog.String("wishlist_id", in.WishlistID),
		slog.String("product_id", in.ProductID),
	)

	emoji := strings.TrimSpace(in.Emoji)
	if emoji == "" {
		lg.Warn("invalid argument: empty emoji")
		return models.ReactionUnchanged, fmt.Errorf("%s: %w", op, ErrEmptyEmoji)
	}

	if limit := s.cfg.Limits.EmojiMaxLen; limit > 0 && utf8.RuneCountInString(emoji) > limit {
		lg.Warn("invalid argument: emoji too long", slog.Int("max", limit))
		return models.ReactionUnchanged, fmt.Errorf("%s: %w", op, ErrEmojiTooLong)
	}

	if !validIDs(in.WishlistID, in.ProductID) {
		lg.Warn("invalid argument: malformed id")
		return models.ReactionUnchanged, fmt.Errorf("%s: %w", op, ErrInvalidID)
	}

	outcome, err := s.storage.AddReaction(ctx, in.WishlistID, in.ProductID, in.Session.UserID, emoji)
	if err != nil {
		return models.ReactionUnchanged, mapStorageErr(ctx, op, lg, err)
	}

	s.metrics.IncReaction(outcome)
	lg.Info("reaction_recorded", slog.String("emoji", emoji), slog.String("outcome", outcome.String()))

	return outcome, nil
}

// WishlistByID возвращает вишлист участнику (владельцу или соавтору).
// Чужой вишлист неотличим от отсутствующего: ErrNotFound.
func (s *Service) WishlistByID(ctx context.Context, session *models.Session, id string) (*models.Wishlist, error) {
	const op = "service/wishlists/WishlistByID"

	if !hasSession(session) {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	lg := log.From(ctx).With(
		slog.String("op", op),
		slog.String("user_id", session.UserID),
		slog.String("wishlist_id", id),
	)

	if !primitive.IsValidObjectID(id) {
		lg.Warn("invalid argument: malformed id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidID)
	}

	w, err := s.storage.WishlistByID(ctx, id)
	if err != nil {
		return nil, mapStorageErr(ctx, op, lg, err)
	}

	if !w.HasMember(session.UserID) {
		lg.Warn("wishlist_access_denied")
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return w, nil
}

func hasSession(s *models.Session) bool {
	return s != nil && s.UserID != ""
}

func validIDs(ids ...string) bool {
	for _, id := range ids {
		if !primitive.IsValidObjectID(id) {
			return false
		}
	}

	return true
}
