// Package dto — JSON-представления запросов и ответов публичного API.
// Форма ответов совместима с существующими клиентами: идентификаторы
// в поле "_id", camelCase-имена, время в RFC 3339.
package dto

import (
	"encoding/json"
	"time"

	"github.com/pribylovaa/wishlist-service/internal/models"
)

// AppendCommentRequest — тело POST .../comments.
type AppendCommentRequest struct {
	Text string `json:"text" validate:"required"`
}

// AddReactionRequest — тело POST .../reactions.
type AddReactionRequest struct {
	Emoji string `json:"emoji" validate:"required"`
}

// AuthorResponse — снимок автора комментария.
type AuthorResponse struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CommentResponse — созданный или сохранённый комментарий.
type CommentResponse struct {
	ID        string         `json:"_id"`
	Text      string         `json:"text"`
	Author    AuthorResponse `json:"author"`
	CreatedAt time.Time      `json:"createdAt"`
}

// ReactionResponse — счётчик одного эмодзи.
type ReactionResponse struct {
	Emoji string   `json:"emoji"`
	Count int32    `json:"count"`
	Users []string `json:"users"`
}

// ProductResponse — товар со вложенными комментариями и реакциями.
// Price передаётся JSON-числом без потери точности.
type ProductResponse struct {
	ID          string             `json:"_id"`
	Name        string             `json:"name"`
	Price       json.Number        `json:"price"`
	ImageURL    string             `json:"imageUrl,omitempty"`
	Description string             `json:"description,omitempty"`
	AddedBy     string             `json:"addedBy,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	Comments    []CommentResponse  `json:"comments"`
	Reactions   []ReactionResponse `json:"reactions"`
}

// WishlistResponse — вишлист целиком.
type WishlistResponse struct {
	ID            string            `json:"_id"`
	Name          string            `json:"name"`
	Description   string            `json:"description,omitempty"`
	Owner         string            `json:"owner"`
	Collaborators []string          `json:"collaborators"`
	Products      []ProductResponse `json:"products"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// AckResponse — подтверждение без полезной нагрузки.
type AckResponse struct {
	Message string `json:"message"`
}

// ReactionAck — ответ на AddReaction. Исход (создан/увеличен/без изменений)
// наружу не раскрывается.
var ReactionAck = AckResponse{Message: "Reaction added successfully"}

// CommentFromModel собирает ответ из доменного комментария.
func CommentFromModel(c *models.Comment) CommentResponse {
	return CommentResponse{
		ID:   c.ID,
		Text: c.Text,
		Author: AuthorResponse{
			ID:    c.Author.ID,
			Name:  c.Author.Name,
			Email: c.Author.Email,
		},
		CreatedAt: c.CreatedAt.UTC(),
	}
}

// WishlistFromModel собирает ответ из доменного вишлиста.
// Пустые коллекции сериализуются как [], а не null.
func WishlistFromModel(w *models.Wishlist) WishlistResponse {
	out := WishlistResponse{
		ID:            w.ID,
		Name:          w.Name,
		Description:   w.Description,
		Owner:         w.OwnerID,
		Collaborators: nonNil(w.CollaboratorIDs),
		Products:      make([]ProductResponse, 0, len(w.Products)),
		CreatedAt:     w.CreatedAt.UTC(),
		UpdatedAt:     w.UpdatedAt.UTC(),
	}

	for i := range w.Products {
		out.Products = append(out.Products, productFromModel(&w.Products[i]))
	}

	return out
}

func productFromModel(p *models.Product) ProductResponse {
	out := ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Price:       json.Number(p.Price.String()),
		ImageURL:    p.ImageURL,
		Description: p.Description,
		AddedBy:     p.AddedBy,
		CreatedAt:   p.CreatedAt.UTC(),
		Comments:    make([]CommentResponse, 0, len(p.Comments)),
		Reactions:   make([]ReactionResponse, 0, len(p.Reactions)),
	}

	for i := range p.Comments {
		out.Comments = append(out.Comments, CommentFromModel(&p.Comments[i]))
	}

	for _, r := range p.Reactions {
		out.Reactions = append(out.Reactions, ReactionResponse{
			Emoji: r.Emoji,
			Count: r.Count,
			Users: nonNil(r.Users),
		})
	}

	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
