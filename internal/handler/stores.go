package handler

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/iliyamo/cactilog/internal/model"
	"github.com/iliyamo/cactilog/internal/repository"
	"github.com/iliyamo/cactilog/internal/storage"
	"github.com/iliyamo/cactilog/internal/wikimedia"
)

// The handlers depend on these interfaces; the repository and storage
// packages provide the implementations.

type PlantStore interface {
	List(ctx context.Context, userID string, f model.PlantFilter) ([]model.Plant, error)
	ListPublic(ctx context.Context, limit uint64) ([]model.PublicPlant, error)
	GetByIDAndOwner(ctx context.Context, id int64, userID string) (*model.Plant, error)
	Create(ctx context.Context, p *model.Plant) error
	Update(ctx context.Context, id int64, userID string, patch model.PlantPatch) (*model.Plant, error)
	Delete(ctx context.Context, id int64, userID string) (bool, error)
}

type GrowthStore interface {
	ListByPlant(ctx context.Context, plantID int64, userID string) ([]model.GrowthRecord, error)
	ListByUser(ctx context.Context, userID string) ([]model.GrowthRecord, error)
	Create(ctx context.Context, rec *model.GrowthRecord, userID string) error
	Update(ctx context.Context, id int64, userID string, patch model.GrowthRecordPatch) (*model.GrowthRecord, error)
	Delete(ctx context.Context, id int64, userID string) (bool, error)
}

type PhotoStore interface {
	ListByPlant(ctx context.Context, plantID int64, userID string) ([]model.PlantPhoto, error)
	Create(ctx context.Context, p *model.PlantPhoto) error
	GetByIDAndOwner(ctx context.Context, id int64, userID string) (*model.PlantPhoto, error)
	Delete(ctx context.Context, id int64, userID string) (bool, error)
}

// FileStore keeps photo bytes.
type FileStore interface {
	Save(r io.Reader) (storage.StoredFile, error)
	Open(name string) (*os.File, error)
	Remove(name string) error
}

type SeedStore interface {
	List(ctx context.Context, userID, search string) ([]model.Seed, error)
	GetByIDAndOwner(ctx context.Context, id int64, userID string) (*model.Seed, error)
	Create(ctx context.Context, s *model.Seed) error
	Update(ctx context.Context, id int64, userID string, patch model.SeedPatch) (*model.Seed, error)
	Delete(ctx context.Context, id int64, userID string) (bool, error)
}

type StatsStore interface {
	Stats(ctx context.Context, userID string, now time.Time) (model.DashboardStats, error)
}

type UserStore interface {
	Upsert(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	RegisterLocal(ctx context.Context, u *model.User, passwordHash string) error
	GetCredential(ctx context.Context, email string) (*repository.LocalCredential, error)
}

type TokenStore interface {
	StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error
	ConsumeRefresh(ctx context.Context, tokenHash string) (string, error)
	RevokeAllForUser(ctx context.Context, userID string) error
}

// ImageSearcher finds pictures for a genus.
type ImageSearcher interface {
	SearchGenus(ctx context.Context, genus string, limit int) ([]wikimedia.Image, error)
}

var (
	_ PlantStore    = (*repository.PlantRepo)(nil)
	_ GrowthStore   = (*repository.GrowthRepo)(nil)
	_ PhotoStore    = (*repository.PhotoRepo)(nil)
	_ SeedStore     = (*repository.SeedRepo)(nil)
	_ StatsStore    = (*repository.DashboardRepo)(nil)
	_ UserStore     = (*repository.UserRepo)(nil)
	_ TokenStore    = (*repository.TokenRepo)(nil)
	_ FileStore     = (*storage.LocalStore)(nil)
	_ ImageSearcher = (*wikimedia.Client)(nil)
)
