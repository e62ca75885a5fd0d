package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pribylovaa/wishlist-service/internal/errors"
	"github.com/pribylovaa/wishlist-service/internal/http/dto"
	"github.com/pribylovaa/wishlist-service/internal/http/middleware"
	"github.com/pribylovaa/wishlist-service/internal/models"
	"github.com/pribylovaa/wishlist-service/internal/service"
)

// AppendComment — POST /wishlists/{id}/products/{productId}/comments.
// Ответ: 201 и созданный комментарий.
func (h *Handlers) AppendComment(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionOrFail(w, r)
	if !ok {
		return
	}

	var in dto.AppendCommentRequest
	if err := h.decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	comment, err := h.svc.AppendComment(r.Context(), service.AppendCommentInput{
		WishlistID: chi.URLParam(r, "id"),
		ProductID:  chi.URLParam(r, "productId"),
		Session:    session,
		Text:       in.Text,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.CommentFromModel(comment))
}

// AddReaction — POST /wishlists/{id}/products/{productId}/reactions.
// Ответ: 200 и общее подтверждение, в том числе для повторной реакции.
func (h *Handlers) AddReaction(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionOrFail(w, r)
	if !ok {
		return
	}

	var in dto.AddReactionRequest
	if err := h.decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if _, err := h.svc.AddReaction(r.Context(), service.AddReactionInput{
		WishlistID: chi.URLParam(r, "id"),
		ProductID:  chi.URLParam(r, "productId"),
		Session:    session,
		Emoji:      in.Emoji,
	}); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReactionAck)
}

// GetWishlist — GET /wishlists/{id}, доступно владельцу и соавторам.
func (h *Handlers) GetWishlist(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionOrFail(w, r)
	if !ok {
		return
	}

	wl, err := h.svc.WishlistByID(r.Context(), session, chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WishlistFromModel(wl))
}

func sessionOrFail(w http.ResponseWriter, r *http.Request) (*models.Session, bool) {
	s, ok := middleware.SessionFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, fmt.Errorf("handlers: %w", service.ErrUnauthenticated))
		return nil, false
	}

	return s, true
}
