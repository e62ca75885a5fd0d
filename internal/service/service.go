// service содержит бизнес-логику wishlist-сервиса: комментарии, реакции и разрешение сессии.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pribylovaa/wishlist-service/internal/cache"
	"github.com/pribylovaa/wishlist-service/internal/config"
	"github.com/pribylovaa/wishlist-service/internal/metrics"
	"github.com/pribylovaa/wishlist-service/internal/storage"
)

var (
	// ErrInvalidArgument — неверные входные параметры запроса к сервису.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidID — идентификатор вишлиста или товара не является ObjectID.
	ErrInvalidID = fmt.Errorf("%w: invalid id", ErrInvalidArgument)
	// ErrEmptyText — текст комментария пуст после TrimSpace.
	ErrEmptyText = fmt.Errorf("%w: comment text is required", ErrInvalidArgument)
	// ErrTextTooLong — текст комментария длиннее limits.comment_max_len.
	ErrTextTooLong = fmt.Errorf("%w: comment text is too long", ErrInvalidArgument)
	// ErrEmptyEmoji — эмодзи пуст после TrimSpace.
	ErrEmptyEmoji = fmt.Errorf("%w: emoji is required", ErrInvalidArgument)
	// ErrEmojiTooLong — эмодзи длиннее limits.emoji_max_len.
	ErrEmojiTooLong = fmt.Errorf("%w: emoji is too long", ErrInvalidArgument)
	// ErrUnauthenticated — нет токена, токен невалиден или пользователь не найден.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrNotFound — вишлист или товар отсутствует (или недоступен пользователю).
	ErrNotFound = errors.New("not found")
	// ErrConflict — запись не удалось применить из-за параллельных изменений.
	ErrConflict = errors.New("conflict")
	// ErrInternal — внутренняя ошибка (стораж/БД/кэш).
	ErrInternal = errors.New("internal")
)

// Service — описывает бизнес-логику wishlist-service.
type Service struct {
	storage storage.Storage
	users   cache.UserCache // может быть nil, если кэш не сконфигурирован
	cfg     config.Config
	metrics *metrics.Metrics
}

// New создает новый экземпляр Service.
func New(storage storage.Storage, cfg config.Config) *Service {
	return &Service{
		storage: storage,
		cfg:     cfg,
	}
}

// SetUserCache подключает кэш профилей пользователей.
func (s *Service) SetUserCache(c cache.UserCache) {
	s.users = c
}

// SetMetrics подключает Prometheus-метрики.
func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// mapStorageErr переводит ошибку стораджа в ошибку сервиса.
// Отмена и дедлайн контекста пробрасываются как есть, HTTP-слой отдаёт их как 499/504.
func mapStorageErr(ctx context.Context, op string, lg *slog.Logger, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		lg.Warn("not_found")
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, storage.ErrInvalidID):
		lg.Warn("invalid_id")
		return fmt.Errorf("%s: %w", op, ErrInvalidID)
	case errors.Is(err, storage.ErrConflict):
		lg.Warn("conflict")
		return fmt.Errorf("%s: %w", op, ErrConflict)
	case ctx.Err() != nil:
		lg.Warn("context_done", "err", ctx.Err())
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
		lg.Error("storage_failed", "err", err)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}
}
