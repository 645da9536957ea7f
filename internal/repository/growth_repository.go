package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/iliyamo/cactilog/internal/database"
	"github.com/iliyamo/cactilog/internal/model"
)

var growthColumns = []string{
	"g.id", "g.plant_id", "g.date", "g.height_inches", "g.width_inches", "g.weight_oz",
	"g.observations", "g.created_at", "g.updated_at",
}

// ownedPlantIDs restricts a growth record or photo statement to plants of
// one user.
const ownedPlantIDs = "plant_id IN (SELECT id FROM plants WHERE user_id = ?)"

// GrowthRepo stores growth records.  Ownership is transitive: a record is
// visible to whoever owns its plant.
type GrowthRepo struct {
	db  *database.DB
	now func() time.Time
}

func NewGrowthRepo(db *database.DB) *GrowthRepo {
	return &GrowthRepo{db: db, now: utcNow}
}

// plantOwned looks up the parent plant before any record access.
func (r *GrowthRepo) plantOwned(ctx context.Context, plantID int64, userID string) (bool, error) {
	query, args, err := r.db.Builder().Select("id").From("plants").
		Where(sq.Eq{"id": plantID, "user_id": userID}).ToSql()
	if err != nil {
		return false, err
	}
	var id int64
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListByPlant returns the plant's records, newest date first.  A plant the
// user does not own yields an empty list rather than an error.
func (r *GrowthRepo) ListByPlant(ctx context.Context, plantID int64, userID string) ([]model.GrowthRecord, error) {
	records := []model.GrowthRecord{}
	owned, err := r.plantOwned(ctx, plantID, userID)
	if err != nil || !owned {
		return records, err
	}
	query, args, err := r.db.Builder().Select(growthColumns...).From("growth_records g").
		Where(sq.Eq{"g.plant_id": plantID}).
		OrderBy("g.date DESC", "g.id DESC").ToSql()
	if err != nil {
		return nil, err
	}
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, err
	}
	return records, nil
}

// ListByUser returns every record of the user's plants ordered by plant and
// date ascending.  It feeds the growth analytics.
func (r *GrowthRepo) ListByUser(ctx context.Context, userID string) ([]model.GrowthRecord, error) {
	query, args, err := r.db.Builder().Select(growthColumns...).From("growth_records g").
		Join("plants p ON p.id = g.plant_id").
		Where(sq.Eq{"p.user_id": userID}).
		OrderBy("g.plant_id", "g.date", "g.id").ToSql()
	if err != nil {
		return nil, err
	}
	records := []model.GrowthRecord{}
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, err
	}
	return records, nil
}

// Create inserts rec after checking that userID owns rec.PlantID.
func (r *GrowthRepo) Create(ctx context.Context, rec *model.GrowthRecord, userID string) error {
	owned, err := r.plantOwned(ctx, rec.PlantID, userID)
	if err != nil {
		return err
	}
	if !owned {
		return ErrNotFound
	}
	now := r.now()
	ins := r.db.Builder().Insert("growth_records").
		Columns("plant_id", "date", "height_inches", "width_inches", "weight_oz", "observations", "created_at", "updated_at").
		Values(rec.PlantID, rec.Date, rec.HeightInches, rec.WidthInches, rec.WeightOz, rec.Observations, now, now)
	id, err := r.db.InsertID(ctx, r.db, ins)
	if err != nil {
		return err
	}
	rec.ID = id
	rec.CreatedAt, rec.UpdatedAt = now, now
	return nil
}

// GetByIDAndOwner fetches a record through its plant's owner.
func (r *GrowthRepo) GetByIDAndOwner(ctx context.Context, id int64, userID string) (*model.GrowthRecord, error) {
	query, args, err := r.db.Builder().Select(growthColumns...).From("growth_records g").
		Join("plants p ON p.id = g.plant_id").
		Where(sq.Eq{"g.id": id, "p.user_id": userID}).ToSql()
	if err != nil {
		return nil, err
	}
	var rec model.GrowthRecord
	if err := r.db.GetContext(ctx, &rec, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// Update patches a record of a plant owned by userID.
func (r *GrowthRepo) Update(ctx context.Context, id int64, userID string, patch model.GrowthRecordPatch) (*model.GrowthRecord, error) {
	cols := patch.Columns()
	cols["updated_at"] = r.now()
	query, args, err := r.db.Builder().Update("growth_records").SetMap(cols).
		Where(sq.Eq{"id": id}).Where(ownedPlantIDs, userID).ToSql()
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

// Delete removes a record of a plant owned by userID.
func (r *GrowthRepo) Delete(ctx context.Context, id int64, userID string) (bool, error) {
	query, args, err := r.db.Builder().Delete("growth_records").
		Where(sq.Eq{"id": id}).Where(ownedPlantIDs, userID).ToSql()
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
