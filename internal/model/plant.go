package model

import (
	"strings"
	"time"
)

const (
	PlantTypeCactus    = "cactus"
	PlantTypeSucculent = "succulent"

	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Plant is a single cataloged specimen owned by exactly one user.
type Plant struct {
	ID              int64     `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"userId"`
	CustomID        *string   `db:"custom_id" json:"customId"`
	Type            string    `db:"type" json:"type"`
	Genus           string    `db:"genus" json:"genus"`
	Species         *string   `db:"species" json:"species"`
	Cultivar        *string   `db:"cultivar" json:"cultivar"`
	Mutation        *string   `db:"mutation" json:"mutation"`
	CommonName      *string   `db:"common_name" json:"commonName"`
	Supplier        *string   `db:"supplier" json:"supplier"`
	AcquisitionDate *string   `db:"acquisition_date" json:"acquisitionDate"`
	InitialType     *string   `db:"initial_type" json:"initialType"`
	Notes           *string   `db:"notes" json:"notes"`
	IsPublic        string    `db:"is_public" json:"isPublic"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

// PublicPlant is the gallery view of a plant; it never carries the owner.
type PublicPlant struct {
	ID         int64     `db:"id" json:"id"`
	Type       string    `db:"type" json:"type"`
	Genus      string    `db:"genus" json:"genus"`
	Species    *string   `db:"species" json:"species"`
	Cultivar   *string   `db:"cultivar" json:"cultivar"`
	Mutation   *string   `db:"mutation" json:"mutation"`
	CommonName *string   `db:"common_name" json:"commonName"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// PlantFilter narrows GET /api/plants.  Search is a case-insensitive
// partial match OR-ed across commonName, genus, species, supplier and
// customId; Type and Genus are exact.
type PlantFilter struct {
	Search string
	Type   string
	Genus  string
}

// PlantInput is the create payload.
type PlantInput struct {
	CustomID        *string `json:"customId" form:"customId"`
	Type            string  `json:"type" form:"type" validate:"required,oneof=cactus succulent"`
	Genus           string  `json:"genus" form:"genus" validate:"required"`
	Species         *string `json:"species" form:"species"`
	Cultivar        *string `json:"cultivar" form:"cultivar"`
	Mutation        *string `json:"mutation" form:"mutation"`
	CommonName      *string `json:"commonName" form:"commonName"`
	Supplier        *string `json:"supplier" form:"supplier"`
	AcquisitionDate *string `json:"acquisitionDate" form:"acquisitionDate"`
	InitialType     *string `json:"initialType" form:"initialType"`
	Notes           *string `json:"notes" form:"notes"`
	IsPublic        string  `json:"isPublic" form:"isPublic" validate:"omitempty,oneof=public private"`
}

// Normalize trims the payload and nulls blank optional fields.
func (in *PlantInput) Normalize() {
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	in.Genus = strings.TrimSpace(in.Genus)
	in.IsPublic = strings.ToLower(strings.TrimSpace(in.IsPublic))
	for _, f := range []**string{
		&in.CustomID, &in.Species, &in.Cultivar, &in.Mutation, &in.CommonName,
		&in.Supplier, &in.AcquisitionDate, &in.InitialType, &in.Notes,
	} {
		*f = NullIfBlank(*f)
	}
}

// Plant builds the row to insert for the given owner.
func (in PlantInput) Plant(userID string) *Plant {
	visibility := in.IsPublic
	if visibility == "" {
		visibility = VisibilityPublic
	}
	return &Plant{
		UserID:          userID,
		CustomID:        in.CustomID,
		Type:            in.Type,
		Genus:           in.Genus,
		Species:         in.Species,
		Cultivar:        in.Cultivar,
		Mutation:        in.Mutation,
		CommonName:      in.CommonName,
		Supplier:        in.Supplier,
		AcquisitionDate: in.AcquisitionDate,
		InitialType:     in.InitialType,
		Notes:           in.Notes,
		IsPublic:        visibility,
	}
}

// PlantPatch is the PATCH payload.  Only keys present in the request body
// are written.
type PlantPatch struct {
	CustomID        Optional[string] `json:"customId"`
	Type            Optional[string] `json:"type"`
	Genus           Optional[string] `json:"genus"`
	Species         Optional[string] `json:"species"`
	Cultivar        Optional[string] `json:"cultivar"`
	Mutation        Optional[string] `json:"mutation"`
	CommonName      Optional[string] `json:"commonName"`
	Supplier        Optional[string] `json:"supplier"`
	AcquisitionDate Optional[string] `json:"acquisitionDate"`
	InitialType     Optional[string] `json:"initialType"`
	Notes           Optional[string] `json:"notes"`
	IsPublic        Optional[string] `json:"isPublic"`
}

func (p *PlantPatch) fields() []struct {
	col string
	val *Optional[string]
} {
	return []struct {
		col string
		val *Optional[string]
	}{
		{"custom_id", &p.CustomID},
		{"type", &p.Type},
		{"genus", &p.Genus},
		{"species", &p.Species},
		{"cultivar", &p.Cultivar},
		{"mutation", &p.Mutation},
		{"common_name", &p.CommonName},
		{"supplier", &p.Supplier},
		{"acquisition_date", &p.AcquisitionDate},
		{"initial_type", &p.InitialType},
		{"notes", &p.Notes},
		{"is_public", &p.IsPublic},
	}
}

// Normalize trims supplied values and turns blank ones into null.
func (p *PlantPatch) Normalize() {
	for _, f := range p.fields() {
		normalizeString(f.val)
	}
	if p.Type.Set && !p.Type.Null {
		p.Type.Value = strings.ToLower(p.Type.Value)
	}
	if p.IsPublic.Set && !p.IsPublic.Null {
		p.IsPublic.Value = strings.ToLower(p.IsPublic.Value)
	}
}

// Columns maps each supplied field to its column.  Nulls map to nil.
func (p *PlantPatch) Columns() map[string]any {
	out := map[string]any{}
	for _, f := range p.fields() {
		if !f.val.Set {
			continue
		}
		if f.val.Null {
			out[f.col] = nil
		} else {
			out[f.col] = f.val.Value
		}
	}
	return out
}
