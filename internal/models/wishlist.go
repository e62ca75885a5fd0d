// Package models содержит доменные сущности wishlist-сервиса.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wishlist — вишлист целиком: один документ MongoDB со вложенными товарами.
// Важно:
//   - ID/OwnerID/CollaboratorIDs — ObjectID MongoDB в hex-представлении;
//   - UpdatedAt обновляется при любой мутации вложенного товара;
//   - порядок Products соответствует порядку в документе.
type Wishlist struct {
	ID              string
	Name            string
	Description     string
	OwnerID         string
	CollaboratorIDs []string
	Products        []Product
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Product — товар внутри вишлиста со своими комментариями и реакциями.
//   - Comments упорядочены по времени добавления (порядок вставки = порядок показа);
//   - Reactions уникальны по Emoji.
type Product struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	ImageURL    string
	Description string
	AddedBy     string
	CreatedAt   time.Time
	Comments    []Comment
	Reactions   []Reaction
}

// Comment — неизменяемая заметка к товару.
// Author — снимок автора на момент публикации, а не ссылка на пользователя.
type Comment struct {
	ID        string
	Text      string
	Author    Author
	CreatedAt time.Time
}

// Author — снимок идентичности автора комментария.
type Author struct {
	ID    string
	Name  string
	Email string
}

// Reaction — агрегированный счётчик одного эмодзи на товаре.
// Инвариант: Count == len(Users), каждый пользователь встречается не более одного раза.
type Reaction struct {
	Emoji string
	Count int32
	Users []string
}

// ReactionOutcome — чем закончилась попытка поставить реакцию.
type ReactionOutcome int

const (
	// ReactionUnchanged — пользователь уже ставил этот эмодзи, состояние не изменилось.
	ReactionUnchanged ReactionOutcome = iota
	// ReactionIncremented — существующий счётчик увеличен на единицу.
	ReactionIncremented
	// ReactionCreated — создан новый счётчик {emoji, 1, [user]}.
	ReactionCreated
)

func (o ReactionOutcome) String() string {
	switch o {
	case ReactionIncremented:
		return "incremented"
	case ReactionCreated:
		return "created"
	default:
		return "unchanged"
	}
}

// Product ищет товар по идентификатору.
func (w *Wishlist) Product(id string) (*Product, bool) {
	for i := range w.Products {
		if w.Products[i].ID == id {
			return &w.Products[i], true
		}
	}

	return nil, false
}

// HasMember сообщает, является ли пользователь владельцем или соавтором вишлиста.
func (w *Wishlist) HasMember(userID string) bool {
	if userID == "" {
		return false
	}

	if w.OwnerID == userID {
		return true
	}

	for _, id := range w.CollaboratorIDs {
		if id == userID {
			return true
		}
	}

	return false
}

// Reaction возвращает счётчик по эмодзи.
func (p *Product) Reaction(emoji string) (*Reaction, bool) {
	for i := range p.Reactions {
		if p.Reactions[i].Emoji == emoji {
			return &p.Reactions[i], true
		}
	}

	return nil, false
}

// HasUser сообщает, ставил ли пользователь эту реакцию.
func (r Reaction) HasUser(userID string) bool {
	for _, id := range r.Users {
		if id == userID {
			return true
		}
	}

	return false
}
