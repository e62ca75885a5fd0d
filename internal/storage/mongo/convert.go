package mongo

import (
	"fmt"
	"time"

	"github.com/pribylovaa/wishlist-service/internal/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Документы MongoDB. Идентификаторы хранятся как ObjectID, цена как Decimal128,
// вложенные массивы никогда не пишутся как null.

type wishlistDoc struct {
	ID              primitive.ObjectID   `bson:"_id"`
	Name            string               `bson:"name"`
	Description     string               `bson:"description"`
	OwnerID         primitive.ObjectID   `bson:"owner_id"`
	CollaboratorIDs []primitive.ObjectID `bson:"collaborator_ids"`
	Products        []productDoc         `bson:"products"`
	CreatedAt       time.Time            `bson:"created_at"`
	UpdatedAt       time.Time            `bson:"updated_at"`
}

type productDoc struct {
	ID          primitive.ObjectID   `bson:"_id"`
	Name        string               `bson:"name"`
	Price       primitive.Decimal128 `bson:"price"`
	ImageURL    string               `bson:"image_url"`
	Description string               `bson:"description"`
	AddedBy     primitive.ObjectID   `bson:"added_by"`
	CreatedAt   time.Time            `bson:"created_at"`
	Comments    []commentDoc         `bson:"comments"`
	Reactions   []reactionDoc        `bson:"reactions"`
}

type commentDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Text      string             `bson:"text"`
	Author    authorDoc          `bson:"author"`
	CreatedAt time.Time          `bson:"created_at"`
}

type authorDoc struct {
	ID    primitive.ObjectID `bson:"_id"`
	Name  string             `bson:"name"`
	Email string             `bson:"email"`
}

type reactionDoc struct {
	Emoji string               `bson:"emoji"`
	Count int32                `bson:"count"`
	Users []primitive.ObjectID `bson:"users"`
}

type userDoc struct {
	ID    primitive.ObjectID `bson:"_id"`
	Name  string             `bson:"name"`
	Email string             `bson:"email"`
}

// toMS приводит время к точности MongoDB DateTime (миллисекунды, UTC).
func toMS(t time.Time) time.Time { return t.UTC().Truncate(time.Millisecond) }

// hexIDs переводит ObjectID в hex; nil превращается в пустой срез.
func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}

	return out
}

// parseIDs обратна hexIDs.
func parseIDs(ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, s := range ids {
		oid, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return nil, fmt.Errorf("parse id %q: %w", s, err)
		}
		out = append(out, oid)
	}

	return out, nil
}

// decimalToD128 переводит цену в Decimal128 через строковое представление без потерь.
func decimalToD128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}

// d128ToDecimal переводит Decimal128 обратно. NaN и Inf не являются ценой.
func d128ToDecimal(d primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(d.String())
}

func (d wishlistDoc) toModel() (*models.Wishlist, error) {
	w := &models.Wishlist{
		ID:              d.ID.Hex(),
		Name:            d.Name,
		Description:     d.Description,
		OwnerID:         d.OwnerID.Hex(),
		CollaboratorIDs: hexIDs(d.CollaboratorIDs),
		Products:        make([]models.Product, 0, len(d.Products)),
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
	}

	for _, pd := range d.Products {
		p, err := pd.toModel()
		if err != nil {
			return nil, err
		}
		w.Products = append(w.Products, p)
	}

	return w, nil
}

func (d productDoc) toModel() (models.Product, error) {
	price, err := d128ToDecimal(d.Price)
	if err != nil {
		return models.Product{}, fmt.Errorf("product %s price: %w", d.ID.Hex(), err)
	}

	p := models.Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Price:       price,
		ImageURL:    d.ImageURL,
		Description: d.Description,
		AddedBy:     d.AddedBy.Hex(),
		CreatedAt:   d.CreatedAt.UTC(),
		Comments:    make([]models.Comment, 0, len(d.Comments)),
		Reactions:   make([]models.Reaction, 0, len(d.Reactions)),
	}

	for _, c := range d.Comments {
		p.Comments = append(p.Comments, c.toModel())
	}

	for _, r := range d.Reactions {
		p.Reactions = append(p.Reactions, models.Reaction{
			Emoji: r.Emoji,
			Count: r.Count,
			Users: hexIDs(r.Users),
		})
	}

	return p, nil
}

func (d commentDoc) toModel() models.Comment {
	return models.Comment{
		ID:   d.ID.Hex(),
		Text: d.Text,
		Author: models.Author{
			ID:    d.Author.ID.Hex(),
			Name:  d.Author.Name,
			Email: d.Author.Email,
		},
		CreatedAt: d.CreatedAt.UTC(),
	}
}

// wishlistFromModel собирает документ из доменной модели.
// Пустые идентификаторы вишлиста и товаров заменяются новыми ObjectID.
func wishlistFromModel(w models.Wishlist) (wishlistDoc, error) {
	id, err := objectIDOrNew(w.ID)
	if err != nil {
		return wishlistDoc{}, fmt.Errorf("wishlist id: %w", err)
	}

	owner, err := primitive.ObjectIDFromHex(w.OwnerID)
	if err != nil {
		return wishlistDoc{}, fmt.Errorf("owner id: %w", err)
	}

	collaborators, err := parseIDs(w.CollaboratorIDs)
	if err != nil {
		return wishlistDoc{}, err
	}

	d := wishlistDoc{
		ID:              id,
		Name:            w.Name,
		Description:     w.Description,
		OwnerID:         owner,
		CollaboratorIDs: collaborators,
		Products:        make([]productDoc, 0, len(w.Products)),
		CreatedAt:       toMS(w.CreatedAt),
		UpdatedAt:       toMS(w.UpdatedAt),
	}

	for _, p := range w.Products {
		pd, err := productFromModel(p)
		if err != nil {
			return wishlistDoc{}, err
		}
		d.Products = append(d.Products, pd)
	}

	return d, nil
}

func productFromModel(p models.Product) (productDoc, error) {
	id, err := objectIDOrNew(p.ID)
	if err != nil {
		return productDoc{}, fmt.Errorf("product id: %w", err)
	}

	price, err := decimalToD128(p.Price)
	if err != nil {
		return productDoc{}, fmt.Errorf("product %s price: %w", p.ID, err)
	}

	var addedBy primitive.ObjectID
	if p.AddedBy != "" {
		if addedBy, err = primitive.ObjectIDFromHex(p.AddedBy); err != nil {
			return productDoc{}, fmt.Errorf("product %s added_by: %w", p.ID, err)
		}
	}

	d := productDoc{
		ID:          id,
		Name:        p.Name,
		Price:       price,
		ImageURL:    p.ImageURL,
		Description: p.Description,
		AddedBy:     addedBy,
		CreatedAt:   toMS(p.CreatedAt),
		Comments:    make([]commentDoc, 0, len(p.Comments)),
		Reactions:   make([]reactionDoc, 0, len(p.Reactions)),
	}

	for _, c := range p.Comments {
		cd, err := commentFromModel(c)
		if err != nil {
			return productDoc{}, err
		}
		d.Comments = append(d.Comments, cd)
	}

	for _, r := range p.Reactions {
		users, err := parseIDs(r.Users)
		if err != nil {
			return productDoc{}, err
		}
		d.Reactions = append(d.Reactions, reactionDoc{
			Emoji: r.Emoji,
			Count: int32(len(users)),
			Users: users,
		})
	}

	return d, nil
}

func commentFromModel(c models.Comment) (commentDoc, error) {
	id, err := objectIDOrNew(c.ID)
	if err != nil {
		return commentDoc{}, fmt.Errorf("comment id: %w", err)
	}

	author, err := primitive.ObjectIDFromHex(c.Author.ID)
	if err != nil {
		return commentDoc{}, fmt.Errorf("comment author id: %w", err)
	}

	return commentDoc{
		ID:   id,
		Text: c.Text,
		Author: authorDoc{
			ID:    author,
			Name:  c.Author.Name,
			Email: c.Author.Email,
		},
		CreatedAt: toMS(c.CreatedAt),
	}, nil
}

func objectIDOrNew(hex string) (primitive.ObjectID, error) {
	if hex == "" {
		return primitive.NewObjectID(), nil
	}

	return primitive.ObjectIDFromHex(hex)
}
