package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/pribylovaa/wishlist-service/internal/errors"
	"github.com/pribylovaa/wishlist-service/internal/models"
	"github.com/pribylovaa/wishlist-service/internal/pkg/log"
	"github.com/pribylovaa/wishlist-service/internal/service"
)

// SessionResolver разрешает токен сессии в идентичность пользователя.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*models.Session, error)
}

type sessionKey struct{}

// Session требует валидную сессию для всех вложенных маршрутов.
// Токен читается из cookie cookieName, иначе из "Authorization: Bearer <token>".
// Без токена или с отвергнутым токеном запрос завершается 401 до обработчика.
func Session(resolver SessionResolver, cookieName string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r, cookieName)
			if token == "" {
				apierrors.WriteError(w, r, fmt.Errorf("middleware/Session: %w", service.ErrUnauthenticated))
				return
			}

			s, err := resolver.ResolveSession(r.Context(), token)
			if err != nil {
				apierrors.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey{}, s)
			ctx = log.With(ctx, slog.String("user_id", s.UserID))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFrom возвращает сессию, установленную мидлваром Session.
func SessionFrom(ctx context.Context) (*models.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*models.Session)
	return s, ok && s != nil
}

// TokenFromRequest достаёт токен сессии: cookie приоритетнее заголовка.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil {
			if v := strings.TrimSpace(c.Value); v != "" {
				return v
			}
		}
	}

	const prefix = "Bearer "

	auth := r.Header.Get("Authorization")
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}

	return ""
}
