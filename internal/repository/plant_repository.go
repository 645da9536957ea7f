package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/iliyamo/cactilog/internal/database"
	"github.com/iliyamo/cactilog/internal/model"
)

var plantColumns = []string{
	"id", "user_id", "custom_id", "type", "genus", "species", "cultivar", "mutation",
	"common_name", "supplier", "acquisition_date", "initial_type", "notes", "is_public",
	"created_at", "updated_at",
}

// PlantRepo encapsulates all database queries related to plants.  Every
// query carries the owner in its WHERE clause.
type PlantRepo struct {
	db  *database.DB
	now func() time.Time
}

func NewPlantRepo(db *database.DB) *PlantRepo {
	return &PlantRepo{db: db, now: utcNow}
}

// List returns every plant of the user, newest first.
func (r *PlantRepo) List(ctx context.Context, userID string, f model.PlantFilter) ([]model.Plant, error) {
	q := r.db.Builder().Select(plantColumns...).From("plants").Where(sq.Eq{"user_id": userID})
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := likePattern(s)
		q = q.Where(sq.Or{
			sq.Expr("LOWER(common_name) LIKE ?", pattern),
			sq.Expr("LOWER(genus) LIKE ?", pattern),
			sq.Expr("LOWER(species) LIKE ?", pattern),
			sq.Expr("LOWER(supplier) LIKE ?", pattern),
			sq.Expr("LOWER(custom_id) LIKE ?", pattern),
		})
	}
	if f.Type != "" {
		q = q.Where(sq.Eq{"type": f.Type})
	}
	if f.Genus != "" {
		q = q.Where(sq.Eq{"genus": f.Genus})
	}
	query, args, err := q.OrderBy("created_at DESC", "id DESC").ToSql()
	if err != nil {
		return nil, err
	}
	plants := []model.Plant{}
	if err := r.db.SelectContext(ctx, &plants, query, args...); err != nil {
		return nil, err
	}
	return plants, nil
}

// ListPublic returns the newest public plants across all collectors.
func (r *PlantRepo) ListPublic(ctx context.Context, limit uint64) ([]model.PublicPlant, error) {
	query, args, err := r.db.Builder().
		Select("id", "type", "genus", "species", "cultivar", "mutation", "common_name", "created_at").
		From("plants").
		Where(sq.Eq{"is_public": model.VisibilityPublic}).
		OrderBy("created_at DESC", "id DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, err
	}
	out := []model.PublicPlant{}
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByIDAndOwner fetches a plant only if it belongs to userID.  A plant
// owned by someone else is reported as ErrNotFound.
func (r *PlantRepo) GetByIDAndOwner(ctx context.Context, id int64, userID string) (*model.Plant, error) {
	query, args, err := r.db.Builder().Select(plantColumns...).From("plants").
		Where(sq.Eq{"id": id, "user_id": userID}).ToSql()
	if err != nil {
		return nil, err
	}
	var p model.Plant
	if err := r.db.GetContext(ctx, &p, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts p.  The caller stamps UserID from the resolved principal;
// ID and timestamps are filled in on success.
func (r *PlantRepo) Create(ctx context.Context, p *model.Plant) error {
	now := r.now()
	ins := r.db.Builder().Insert("plants").
		Columns("user_id", "custom_id", "type", "genus", "species", "cultivar", "mutation",
			"common_name", "supplier", "acquisition_date", "initial_type", "notes", "is_public",
			"created_at", "updated_at").
		Values(p.UserID, p.CustomID, p.Type, p.Genus, p.Species, p.Cultivar, p.Mutation,
			p.CommonName, p.Supplier, p.AcquisitionDate, p.InitialType, p.Notes, p.IsPublic,
			now, now)
	id, err := r.db.InsertID(ctx, r.db, ins)
	if err != nil {
		return err
	}
	p.ID = id
	p.CreatedAt, p.UpdatedAt = now, now
	return nil
}

// Update writes only the supplied fields and always advances updated_at.
// The owner filter sits in the WHERE clause, so a foreign id matches zero
// rows and comes back as ErrNotFound.
func (r *PlantRepo) Update(ctx context.Context, id int64, userID string, patch model.PlantPatch) (*model.Plant, error) {
	cols := patch.Columns()
	cols["updated_at"] = r.now()
	query, args, err := r.db.Builder().Update("plants").SetMap(cols).
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

// Delete removes the plant if userID owns it and reports whether a row was
// deleted.  Growth records and photo rows are removed in the same
// transaction; photo files are the caller's job.
func (r *PlantRepo) Delete(ctx context.Context, id int64, userID string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback() // no-op after commit

	b := r.db.Builder()
	query, args, err := b.Delete("plants").Where(sq.Eq{"id": id, "user_id": userID}).ToSql()
	if err != nil {
		return false, err
	}
	owned := sq.Expr("plant_id IN (SELECT id FROM plants WHERE id = ? AND user_id = ?)", id, userID)
	for _, table := range []string{"growth_records", "plant_photos"} {
		q, a, err := b.Delete(table).Where(owned).ToSql()
		if err != nil {
			return false, err
		}
		if _, err := tx.ExecContext(ctx, q, a...); err != nil {
			return false, fmt.Errorf("delete %s: %w", table, err)
		}
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	return true, tx.Commit()
}

// likePattern lower-cases s, escapes LIKE wildcards and wraps it for a
// substring match.
func likePattern(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}
