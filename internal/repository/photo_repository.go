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

var photoColumns = []string{
	"ph.id", "ph.plant_id", "ph.filename", "ph.original_name", "ph.mime_type", "ph.size", "ph.uploaded_at",
}

// PhotoRepo keeps photo metadata rows.  The files themselves live in the
// photo store.
type PhotoRepo struct {
	db  *database.DB
	now func() time.Time
}

func NewPhotoRepo(db *database.DB) *PhotoRepo {
	return &PhotoRepo{db: db, now: utcNow}
}

// ListByPlant returns the plant's photos, newest first, if userID owns it.
func (r *PhotoRepo) ListByPlant(ctx context.Context, plantID int64, userID string) ([]model.PlantPhoto, error) {
	query, args, err := r.db.Builder().Select(photoColumns...).From("plant_photos ph").
		Join("plants p ON p.id = ph.plant_id").
		Where(sq.Eq{"ph.plant_id": plantID, "p.user_id": userID}).
		OrderBy("ph.uploaded_at DESC", "ph.id DESC").ToSql()
	if err != nil {
		return nil, err
	}
	photos := []model.PlantPhoto{}
	if err := r.db.SelectContext(ctx, &photos, query, args...); err != nil {
		return nil, err
	}
	for i := range photos {
		photos[i].WithURL()
	}
	return photos, nil
}

// Create records an uploaded file.  The caller has already verified that
// the plant belongs to the uploader.
func (r *PhotoRepo) Create(ctx context.Context, p *model.PlantPhoto) error {
	now := r.now()
	ins := r.db.Builder().Insert("plant_photos").
		Columns("plant_id", "filename", "original_name", "mime_type", "size", "uploaded_at").
		Values(p.PlantID, p.Filename, p.OriginalName, p.MimeType, p.Size, now)
	id, err := r.db.InsertID(ctx, r.db, ins)
	if err != nil {
		return err
	}
	p.ID = id
	p.UploadedAt = now
	p.WithURL()
	return nil
}

// GetByIDAndOwner fetches a photo through its plant's owner.
func (r *PhotoRepo) GetByIDAndOwner(ctx context.Context, id int64, userID string) (*model.PlantPhoto, error) {
	query, args, err := r.db.Builder().Select(photoColumns...).From("plant_photos ph").
		Join("plants p ON p.id = ph.plant_id").
		Where(sq.Eq{"ph.id": id, "p.user_id": userID}).ToSql()
	if err != nil {
		return nil, err
	}
	var photo model.PlantPhoto
	if err := r.db.GetContext(ctx, &photo, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return photo.WithURL(), nil
}

// Delete removes the metadata row of a photo owned by userID.
func (r *PhotoRepo) Delete(ctx context.Context, id int64, userID string) (bool, error) {
	query, args, err := r.db.Builder().Delete("plant_photos").
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
