package service

// Тесты сервисного слоя (internal/service/wishlists.go).
//
// Проверяем:
//   - порядок и результат валидации входов (сессия, текст/эмодзи, идентификаторы);
//   - нормализацию (TrimSpace) и аргументы вызова storage;
//   - маппинг ошибок storage -> service;
//   - доступ к вишлисту только для участников.
//
// Моки: mockgen -source=./internal/storage/storage.go -destination=./mocks/storage.go -package=mocks

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pribylovaa/wishlist-service/internal/config"
	"github.com/pribylovaa/wishlist-service/internal/metrics"
	"github.com/pribylovaa/wishlist-service/internal/models"
	"github.com/pribylovaa/wishlist-service/internal/storage"
	"github.com/pribylovaa/wishlist-service/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const (
	wid = "65e0a0c9fd2f000000000001"
	pid = "65e0a0c9fd2f000000000011"
	uid = "65e0a0c9fd2f0000000000a1"
)

func testCfg() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret: "unit-test-secret",
			Leeway:    time.Second,
		},
		Cache: config.CacheConfig{UserTTL: time.Minute},
		Limits: config.LimitsConfig{
			CommentMaxLen:    20,
			EmojiMaxLen:      4,
			ReactionAttempts: 3,
		},
	}
}

// newServiceWithMocks — поднимает сервис с моками стораджа.
func newServiceWithMocks(t *testing.T) (*Service, *mocks.MockStorage, *gomock.Controller) {
	t.Helper()
	ctrl := gomock.NewController(t)
	ms := mocks.NewMockStorage(ctrl)
	return New(ms, testCfg()), ms, ctrl
}

func session() *models.Session {
	return &models.Session{UserID: uid, Name: "Alice", Email: "alice@example.com"}
}

// Валидация AppendComment: сессия -> текст -> идентификаторы; storage не вызывается.
func TestService_AppendComment_Validation(t *testing.T) {
	s, _, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	ctx := context.Background()

	tests := []struct {
		name string
		in   AppendCommentInput
		want error
	}{
		{"no session", AppendCommentInput{WishlistID: wid, ProductID: pid, Text: "x"}, ErrUnauthenticated},
		{"empty user in session", AppendCommentInput{WishlistID: wid, ProductID: pid, Session: &models.Session{}, Text: "x"}, ErrUnauthenticated},
		{"whitespace text", AppendCommentInput{WishlistID: wid, ProductID: pid, Session: session(), Text: "   "}, ErrEmptyText},
		{"text too long", AppendCommentInput{WishlistID: wid, ProductID: pid, Session: session(), Text: strings.Repeat("я", 21)}, ErrTextTooLong},
		{"bad wishlist id", AppendCommentInput{WishlistID: "x", ProductID: pid, Session: session(), Text: "ok"}, ErrInvalidID},
		{"bad product id", AppendCommentInput{WishlistID: wid, ProductID: "x", Session: session(), Text: "ok"}, ErrInvalidID},
		// Пустой текст проверяется раньше идентификаторов.
		{"empty text wins over bad id", AppendCommentInput{WishlistID: "x", ProductID: "y", Session: session(), Text: ""}, ErrEmptyText},
		// Без сессии остальное не проверяется.
		{"no session wins over empty text", AppendCommentInput{WishlistID: "x", Text: ""}, ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.AppendComment(ctx, tt.in)
			require.ErrorIs(t, err, tt.want)
		})
	}

	_, err := s.AppendComment(ctx, AppendCommentInput{WishlistID: wid, ProductID: pid, Session: session(), Text: " "})
	require.ErrorIs(t, err, ErrInvalidArgument, "ошибки валидации оборачивают ErrInvalidArgument")
}

// Happy-path: текст нормализуется, автор — снимок сессии.
func TestService_AppendComment_OK(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, ms, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()
	s.SetMetrics(metrics.New(reg))

	sess := session()
	ms.EXPECT().
		AppendComment(gomock.Any(), wid, pid, models.Comment{
			Text:   "+1",
			Author: models.Author{ID: uid, Name: "Alice", Email: "alice@example.com"},
		}).
		DoAndReturn(func(_ context.Context, _, _ string, c models.Comment) (*models.Comment, error) {
			c.ID = "65e0a0c9fd2f0000000000c1"
			c.CreatedAt = time.Now().UTC()
			return &c, nil
		})

	got, err := s.AppendComment(context.Background(), AppendCommentInput{
		WishlistID: wid, ProductID: pid, Session: sess, Text: "  +1  ",
	})
	require.NoError(t, err)
	require.Equal(t, "+1", got.Text)
	require.Equal(t, "65e0a0c9fd2f0000000000c1", got.ID)

	// Снимок не зависит от последующих изменений сессии.
	sess.Name = "Alicia"
	require.Equal(t, "Alice", got.Author.Name)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.Equal(t, 1.0, counterSum(mfs, "wishlist_comments_total"))
}

// Маппинг ошибок storage -> service для AppendComment.
func TestService_AppendComment_StorageErrors(t *testing.T) {
	s, ms, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	in := AppendCommentInput{WishlistID: wid, ProductID: pid, Session: session(), Text: "hi"}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"not found", storage.ErrNotFound, ErrNotFound},
		{"invalid id", storage.ErrInvalidID, ErrInvalidID},
		{"internal", errors.New("boom"), ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms.EXPECT().AppendComment(gomock.Any(), wid, pid, gomock.Any()).Return(nil, tt.err)
			_, err := s.AppendComment(context.Background(), in)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

// Отмена контекста пробрасывается как context.Canceled, а не ErrInternal.
func TestService_AppendComment_ContextCanceled(t *testing.T) {
	s, ms, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ms.EXPECT().AppendComment(gomock.Any(), wid, pid, gomock.Any()).Return(nil, errors.New("socket closed"))

	_, err := s.AppendComment(ctx, AppendCommentInput{WishlistID: wid, ProductID: pid, Session: session(), Text: "hi"})
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, ErrInternal)
}

// Валидация AddReaction.
func TestService_AddReaction_Validation(t *testing.T) {
	s, _, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	ctx := context.Background()

	tests := []struct {
		name string
		in   AddReactionInput
		want error
	}{
		{"no session", AddReactionInput{WishlistID: wid, ProductID: pid, Emoji: "👍"}, ErrUnauthenticated},
		{"empty emoji", AddReactionInput{WishlistID: wid, ProductID: pid, Session: session(), Emoji: ""}, ErrEmptyEmoji},
		{"whitespace emoji", AddReactionInput{WishlistID: wid, ProductID: pid, Session: session(), Emoji: "  "}, ErrEmptyEmoji},
		{"emoji too long", AddReactionInput{WishlistID: wid, ProductID: pid, Session: session(), Emoji: "abcde"}, ErrEmojiTooLong},
		{"bad ids", AddReactionInput{WishlistID: wid, ProductID: "nope", Session: session(), Emoji: "👍"}, ErrInvalidID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.AddReaction(ctx, tt.in)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

// Happy-path: эмодзи нормализуется, исход считается в метриках.
func TestService_AddReaction_Outcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, ms, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()
	s.SetMetrics(metrics.New(reg))

	gomock.InOrder(
		ms.EXPECT().AddReaction(gomock.Any(), wid, pid, uid, "👍").Return(models.ReactionCreated, nil),
		ms.EXPECT().AddReaction(gomock.Any(), wid, pid, uid, "👍").Return(models.ReactionUnchanged, nil),
	)

	in := AddReactionInput{WishlistID: wid, ProductID: pid, Session: session(), Emoji: " 👍 "}

	out, err := s.AddReaction(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, models.ReactionCreated, out)

	out, err = s.AddReaction(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, models.ReactionUnchanged, out)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.Equal(t, 2.0, counterSum(mfs, "wishlist_reactions_total"))
}

// Маппинг ошибок storage -> service для AddReaction.
func TestService_AddReaction_StorageErrors(t *testing.T) {
	s, ms, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	in := AddReactionInput{WishlistID: wid, ProductID: pid, Session: session(), Emoji: "🎉"}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"not found", storage.ErrNotFound, ErrNotFound},
		{"conflict", storage.ErrConflict, ErrConflict},
		{"internal", errors.New("boom"), ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms.EXPECT().AddReaction(gomock.Any(), wid, pid, uid, "🎉").Return(models.ReactionUnchanged, tt.err)
			_, err := s.AddReaction(context.Background(), in)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

// WishlistByID: участники видят вишлист, остальные получают ErrNotFound.
func TestService_WishlistByID(t *testing.T) {
	s, ms, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	ctx := context.Background()
	w := &models.Wishlist{ID: wid, OwnerID: uid, CollaboratorIDs: []string{"65e0a0c9fd2f0000000000b1"}}

	ms.EXPECT().WishlistByID(gomock.Any(), wid).Return(w, nil).Times(3)

	got, err := s.WishlistByID(ctx, session(), wid)
	require.NoError(t, err)
	require.Equal(t, w, got)

	got, err = s.WishlistByID(ctx, &models.Session{UserID: "65e0a0c9fd2f0000000000b1"}, wid)
	require.NoError(t, err)
	require.Equal(t, w, got)

	_, err = s.WishlistByID(ctx, &models.Session{UserID: "65e0a0c9fd2f0000000000c1"}, wid)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.WishlistByID(ctx, nil, wid)
	require.ErrorIs(t, err, ErrUnauthenticated)

	_, err = s.WishlistByID(ctx, session(), "bad")
	require.ErrorIs(t, err, ErrInvalidID)

	ms.EXPECT().WishlistByID(gomock.Any(), wid).Return(nil, storage.ErrNotFound)
	_, err = s.WishlistByID(ctx, session(), wid)
	require.ErrorIs(t, err, ErrNotFound)
}
