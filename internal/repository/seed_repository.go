package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/iliyamo/cactilog/internal/database"
	"github.com/iliyamo/cactilog/internal/model"
)

var seedColumns = []string{
	"id", "user_id", "custom_id", "genus", "species", "cultivar", "supplier", "sow_date",
	"quantity", "notes", "created_at", "updated_at",
}

// SeedRepo stores seed-sowing records with the same ownership contract as
// plants.
type SeedRepo struct {
	db  *database.DB
	now func() time.Time
}

func NewSeedRepo(db *database.DB) *SeedRepo {
	return &SeedRepo{db: db, now: utcNow}
}

// List returns the user's seeds, newest first.  search matches genus,
// species, cultivar, supplier and customId.
func (r *SeedRepo) List(ctx context.Context, userID, search string) ([]model.Seed, error) {
	q := r.db.Builder().Select(seedColumns...).From("seeds").Where(sq.Eq{"user_id": userID})
	if s := strings.TrimSpace(search); s != "" {
		pattern := likePattern(s)
		or := sq.Or{}
		for _, col := range []string{"genus", "species", "cultivar", "supplier", "custom_id"} {
			or = append(or, sq.Expr("LOWER("+col+") LIKE ?", pattern))
		}
		q = q.Where(or)
	}
	query, args, err := q.OrderBy("created_at DESC", "id DESC").ToSql()
	if err != nil {
		return nil, err
	}
	seeds := []model.Seed{}
	if err := r.db.SelectContext(ctx, &seeds, query, args...); err != nil {
		return nil, err
	}
	return seeds, nil
}

func (r *SeedRepo) GetByIDAndOwner(ctx context.Context, id int64, userID string) (*model.Seed, error) {
	query, args, err := r.db.Builder().Select(seedColumns...).From("seeds").
		Where(sq.Eq{"id": id, "user_id": userID}).ToSql()
	if err != nil {
		return nil, err
	}
	var s model.Seed
	if err := r.db.GetContext(ctx, &s, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *SeedRepo) Create(ctx context.Context, s *model.Seed) error {
	now := r.now()
	ins := r.db.Builder().Insert("seeds").
		Columns("user_id", "custom_id", "genus", "species", "cultivar", "supplier", "sow_date",
			"quantity", "notes", "created_at", "updated_at").
		Values(s.UserID, s.CustomID, s.Genus, s.Species, s.Cultivar, s.Supplier, s.SowDate,
			s.Quantity, s.Notes, now, now)
	id, err := r.db.InsertID(ctx, r.db, ins)
	if err != nil {
		return err
	}
	s.ID = id
	s.CreatedAt, s.UpdatedAt = now, now
	return nil
}

func (r *SeedRepo) Update(ctx context.Context, id int64, userID string, patch model.SeedPatch) (*model.Seed, error) {
	cols := patch.Columns()
	cols["updated_at"] = r.now()
	query, args, err := r.db.Builder().Update("seeds").SetMap(cols).
		Where(sq.Eq{"id": id, "user_id": userID}).ToSql()
	if err != nil {
		return nil, err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return r.GetByIDAndOwner(ctx, id, userID)
}

func (r *SeedRepo) Delete(ctx context.Context, id int64, userID string) (bool, error) {
	query, args, err := r.db.Builder().Delete("seeds").
		Where(sq.Eq{"id": id, "user_id": userID}).ToSql()
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
