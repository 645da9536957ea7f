package model

import (
	"strconv"
	"time"
)

// PlantPhoto tracks an uploaded image.  The bytes live in the photo store
// under Filename; the row only carries metadata.
type PlantPhoto struct {
	ID           int64     `db:"id" json:"id"`
	PlantID      int64     `db:"plant_id" json:"plantId"`
	Filename     string    `db:"filename" json:"filename"`
	OriginalName string    `db:"original_name" json:"originalName"`
	MimeType     string    `db:"mime_type" json:"mimeType"`
	Size         int64     `db:"size" json:"size"`
	UploadedAt   time.Time `db:"uploaded_at" json:"uploadedAt"`
	URL          string    `db:"-" json:"url"`
}

// WithURL fills the download URL served by GET /api/photos/:id/file.
func (p *PlantPhoto) WithURL() *PlantPhoto {
	p.URL = "/api/photos/" + strconv.FormatInt(p.ID, 10) + "/file"
	return p
}
