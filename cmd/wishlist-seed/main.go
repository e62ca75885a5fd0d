// wishlist-seed загружает пользователей и вишлисты из JSON-файла в MongoDB.
// Используется для локальной разработки и демо-стендов.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pribylovaa/wishlist-service/internal/config"
	"github.com/pribylovaa/wishlist-service/internal/models"
	"github.com/pribylovaa/wishlist-service/internal/pkg/log"
	"github.com/pribylovaa/wishlist-service/internal/storage"
	"github.com/pribylovaa/wishlist-service/internal/storage/mongo"
)

type fixture struct {
	Users     []fixtureUser     `json:"users"`
	Wishlists []fixtureWishlist `json:"wishlists"`
}

type fixtureUser struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type fixtureWishlist struct {
	ID            string           `json:"_id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Owner         string           `json:"owner"`
	Collaborators []string         `json:"collaborators"`
	Products      []fixtureProduct `json:"products"`
}

type fixtureProduct struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl"`
	Description string          `json:"description"`
	AddedBy     string          `json:"addedBy"`
}

func main() {
	var configPath, dataPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.StringVar(&dataPath, "data", "seed.json", "path to JSON fixture")
	flag.Parse()

	cfg := config.MustLoad(configPath)
	lg := log.New(cfg.Env, os.Stdout)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, dataPath, lg); err != nil {
		lg.Error("seed_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, dataPath string, lg *slog.Logger) error {
	fx, err := readFixture(dataPath)
	if err != nil {
		return err
	}

	dbCtx, dbCancel := context.WithTimeout(ctx, 15*time.Second)
	db, err := mongo.New(dbCtx, cfg)
	dbCancel()
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}

	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Close(closeCtx)
	}()

	var users, wishlists, skipped int

	for _, u := range fx.Users {
		_, err := db.InsertUser(ctx, models.User{ID: u.ID, Name: u.Name, Email: u.Email})
		switch {
		case errors.Is(err, storage.ErrConflict):
			skipped++
		case err != nil:
			return fmt.Errorf("insert user %q: %w", u.Email, err)
		default:
			users++
		}
	}

	for _, w := range fx.Wishlists {
		_, err := db.InsertWishlist(ctx, w.toModel())
		switch {
		case errors.Is(err, storage.ErrConflict):
			skipped++
		case err != nil:
			return fmt.Errorf("insert wishlist %q: %w", w.Name, err)
		default:
			wishlists++
		}
	}

	lg.Info("seed_done",
		slog.Int("users", users),
		slog.Int("wishlists", wishlists),
		slog.Int("skipped", skipped),
	)

	return nil
}

func readFixture(path string) (*fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	var fx fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}

	return &fx, nil
}

func (w fixtureWishlist) toModel() models.Wishlist {
	out := models.Wishlist{
		ID:              w.ID,
		Name:            w.Name,
		Description:     w.Description,
		OwnerID:         w.Owner,
		CollaboratorIDs: w.Collaborators,
		Products:        make([]models.Product, 0, len(w.Products)),
	}

	for _, p := range w.Products {
		addedBy := p.AddedBy
		if addedBy == "" {
			addedBy = w.Owner
		}

		out.Products = append(out.Products, models.Product{
			ID:          p.ID,
			Name:        p.Name,
			Price:       p.Price,
			ImageURL:    p.ImageURL,
			Description: p.Description,
			AddedBy:     addedBy,
		})
	}

	return out
}
