package model

import (
	"strings"
	"time"
)

// Seed is a seed-sowing record owned by a user.
type Seed struct {
	ID        int64     `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	CustomID  *string   `db:"custom_id" json:"customId"`
	Genus     string    `db:"genus" json:"genus"`
	Species   *string   `db:"species" json:"species"`
	Cultivar  *string   `db:"cultivar" json:"cultivar"`
	Supplier  *string   `db:"supplier" json:"supplier"`
	SowDate   *string   `db:"sow_date" json:"sowDate"`
	Quantity  *int      `db:"quantity" json:"quantity"`
	Notes     *string   `db:"notes" json:"notes"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// SeedInput is the create payload.
type SeedInput struct {
	CustomID *string `json:"customId"`
	Genus    string  `json:"genus" validate:"required"`
	Species  *string `json:"species"`
	Cultivar *string `json:"cultivar"`
	Supplier *string `json:"supplier"`
	SowDate  *string `json:"sowDate"`
	Quantity *int    `json:"quantity" validate:"omitempty,gte=0"`
	Notes    *string `json:"notes"`
}

func (in *SeedInput) Normalize() {
	in.Genus = strings.TrimSpace(in.Genus)
	for _, f := range []**string{&in.CustomID, &in.Species, &in.Cultivar, &in.Supplier, &in.SowDate, &in.Notes} {
		*f = NullIfBlank(*f)
	}
}

func (in SeedInput) Seed(userID string) *Seed {
	return &Seed{
		UserID:   userID,
		CustomID: in.CustomID,
		Genus:    in.Genus,
		Species:  in.Species,
		Cultivar: in.Cultivar,
		Supplier: in.Supplier,
		SowDate:  in.SowDate,
		Quantity: in.Quantity,
		Notes:    in.Notes,
	}
}

// SeedPatch is the PATCH payload for a seed record.
type SeedPatch struct {
	CustomID Optional[string] `json:"customId"`
	Genus    Optional[string] `json:"genus"`
	Species  Optional[string] `json:"species"`
	Cultivar Optional[string] `json:"cultivar"`
	Supplier Optional[string] `json:"supplier"`
	SowDate  Optional[string] `json:"sowDate"`
	Quantity Optional[int]    `json:"quantity"`
	Notes    Optional[string] `json:"notes"`
}

func (p *SeedPatch) textFields() map[string]*Optional[string] {
	return map[string]*Optional[string]{
		"custom_id": &p.CustomID,
		"genus":     &p.Genus,
		"species":   &p.Species,
		"cultivar":  &p.Cultivar,
		"supplier":  &p.Supplier,
		"sow_date":  &p.SowDate,
		"notes":     &p.Notes,
	}
}

func (p *SeedPatch) Normalize() {
	for _, f := range p.textFields() {
		normalizeString(f)
	}
}

// Columns maps supplied fields to columns.  Nulls map to nil.
func (p *SeedPatch) Columns() map[string]any {
	out := map[string]any{}
	for col, f := range p.textFields() {
		if !f.Set {
			continue
		}
		if f.Null {
			out[col] = nil
		} else {
			out[col] = f.Value
		}
	}
	if p.Quantity.Set {
		if p.Quantity.Null {
			out["quantity"] = nil
		} else {
			out["quantity"] = p.Quantity.Value
		}
	}
	return out
}
