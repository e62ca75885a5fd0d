package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pribylovaa/wishlist-service/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	wishlistsCollection = "wishlists"
	usersCollection     = "users"
	defaultDBName       = "wishlists"
)

// Mongo - тонкий адаптер для подключения и коллекций MongoDB.
type Mongo struct {
	cfg       *config.Config
	client    *mongodriver.Client
	db        *mongodriver.Database
	wishlists *mongodriver.Collection
	users     *mongodriver.Collection
}

// New подключается к MongoDB, проверяет соединение, готовит коллекции и индексы.
func New(ctx context.Context, cfg *config.Config) (*Mongo, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mongo: nil config")
	}

	if cfg.DB.URL == "" {
		return nil, fmt.Errorf("mongo: empty cfg.DB.URL")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(cfg.DB.URL))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := cli.Database(databaseFromURI(cfg.DB.URL))

	m := &Mongo{
		cfg:       cfg,
		client:    cli,
		db:        db,
		wishlists: db.Collection(wishlistsCollection),
		users:     db.Collection(usersCollection),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = m.Close(ctx)
		return nil, err
	}

	return m, nil
}

// Close закрывает соединение с MongoDB.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// Ping проверяет доступность primary (для /healthz).
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// ensureIndexes создаёт индексы:
//   - products._id — составное совпадение «вишлист + вложенный товар»;
//   - owner_id и collaborator_ids — выборки вишлистов участника;
//   - users.email — уникальность профилей.
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	wl := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "products._id", Value: 1}},
			Options: options.Index().SetName("products_id"),
		},
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}},
			Options: options.Index().SetName("owner_id"),
		},
		{
			Keys:    bson.D{{Key: "collaborator_ids", Value: 1}},
			Options: options.Index().SetName("collaborator_ids"),
		},
	}

	if _, err := m.wishlists.Indexes().CreateMany(ctx, wl); err != nil {
		return fmt.Errorf("mongo ensure wishlist indexes: %w", err)
	}

	_, err := m.users.Indexes().CreateOne(ctx, mongodriver.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("email_unique").SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongo ensure user indexes: %w", err)
	}

	return nil
}

// databaseFromURI извлекает имя базы данных из пути URI mongodb.
// Если его нет или URI не разбирается, возвращает значение по умолчанию.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}

	return defaultDBName
}
