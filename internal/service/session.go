package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pribylovaa/wishlist-service/internal/models"
	"github.com/pribylovaa/wishlist-service/internal/pkg/log"
	"github.com/pribylovaa/wishlist-service/internal/storage"
)

// sessionClaims — полезная нагрузка токена сессии, выпущенного auth-сервисом.
type sessionClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// ResolveSession разрешает токен сессии в идентичность пользователя.
//
// Порядок:
//   - пустой токен -> ErrUnauthenticated;
//   - подпись HS256, срок действия и issuer (если задан) проверяются jwt;
//   - профиль берётся из кэша, при промахе из стораджа (и кладётся в кэш);
//   - пользователя нет -> ErrUnauthenticated.
func (s *Service) ResolveSession(ctx context.Context, token string) (*models.Session, error) {
	const op = "service/session/ResolveSession"

	lg := log.From(ctx).With(slog.String("op", op))

	token = strings.TrimSpace(token)
	if token == "" {
		s.metrics.IncSessionFailure("missing")
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	claims, err := s.parseToken(token)
	if err != nil {
		reason := "invalid"
		if errors.Is(err, jwt.ErrTokenExpired) {
			reason = "expired"
		}

		lg.Warn("session_token_rejected", slog.String("reason", reason), slog.String("err", err.Error()))
		s.metrics.IncSessionFailure(reason)
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}

	user, err := s.lookupUser(ctx, lg, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidID) {
			lg.Warn("session_user_not_found", slog.String("user_id", userID))
			s.metrics.IncSessionFailure("unknown_user")
			return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
		}

		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		}

		lg.Error("session_user_lookup_failed", slog.String("err", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	email := user.Email
	if email == "" {
		email = claims.Email
	}

	return &models.Session{
		UserID: user.ID,
		Email:  email,
		Name:   user.Name,
	}, nil
}

// parseToken валидирует подпись и стандартные claims.
func (s *Service) parseToken(tokenStr string) (*sessionClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(s.cfg.Auth.Leeway),
	}

	if s.cfg.Auth.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Auth.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &sessionClaims{},
		func(t *jwt.Token) (interface{}, error) {
			return []byte(s.cfg.Auth.JWTSecret), nil
		},
		opts...,
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	if claims.UserID == "" && claims.Subject == "" {
		return nil, fmt.Errorf("%w: no user id", jwt.ErrTokenInvalidClaims)
	}

	return claims, nil
}

// lookupUser читает профиль через кэш. Ошибки кэша не фатальны.
func (s *Service) lookupUser(ctx context.Context, lg *slog.Logger, userID string) (*models.User, error) {
	if s.users != nil {
		u, ok, err := s.users.Get(ctx, userID)
		switch {
		case err != nil:
			lg.Warn("user_cache_get_failed", slog.String("err", err.Error()))
		case ok:
			return u, nil
		}
	}

	u, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.users != nil {
		if err := s.users.Set(ctx, u, s.cfg.Cache.UserTTL); err != nil {
			lg.Warn("user_cache_set_failed", slog.String("err", err.Error()))
		}
	}

	return u, nil
}
