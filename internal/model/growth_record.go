package model

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format accepted for growth records.
// RFC3339 timestamps are accepted as well and truncated to the day.  Dates
// are stored at midnight UTC and render as RFC3339 timestamps.
const DateLayout = "2006-01-02"

// GrowthRecord is a dated measurement/observation entry for a plant.
type GrowthRecord struct {
	ID           int64       `db:"id" json:"id"`
	PlantID      int64       `db:"plant_id" json:"plantId"`
	Date         time.Time   `db:"date" json:"date"`
	HeightInches Measurement `db:"height_inches" json:"heightInches"`
	WidthInches  Measurement `db:"width_inches" json:"widthInches"`
	WeightOz     Measurement `db:"weight_oz" json:"weightOz"`
	Observations *string     `db:"observations" json:"observations"`
	CreatedAt    time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updatedAt"`
}

// ParseDate accepts YYYY-MM-DD or an RFC3339 timestamp and returns midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// GrowthRecordInput is the create payload.
type GrowthRecordInput struct {
	Date         string      `json:"date" validate:"required,calendardate"`
	HeightInches Measurement `json:"heightInches"`
	WidthInches  Measurement `json:"widthInches"`
	WeightOz     Measurement `json:"weightOz"`
	Observations *string     `json:"observations"`
}

func (in *GrowthRecordInput) Normalize() {
	in.Date = strings.TrimSpace(in.Date)
	in.Observations = NullIfBlank(in.Observations)
}

// Record builds the row for plantID.  The date must already be validated.
func (in GrowthRecordInput) Record(plantID int64) (*GrowthRecord, error) {
	d, err := ParseDate(in.Date)
	if err != nil {
		return nil, err
	}
	return &GrowthRecord{
		PlantID:      plantID,
		Date:         d,
		HeightInches: in.HeightInches,
		WidthInches:  in.WidthInches,
		WeightOz:     in.WeightOz,
		Observations: in.Observations,
	}, nil
}

// GrowthRecordPatch is the PATCH payload for a growth record.
type GrowthRecordPatch struct {
	Date         Optional[string]      `json:"date"`
	HeightInches Optional[Measurement] `json:"heightInches"`
	WidthInches  Optional[Measurement] `json:"widthInches"`
	WeightOz     Optional[Measurement] `json:"weightOz"`
	Observations Optional[string]      `json:"observations"`
}

func (p *GrowthRecordPatch) Normalize() {
	normalizeString(&p.Date)
	normalizeString(&p.Observations)
	// "" decodes to an invalid Measurement; treat it as an explicit null
	for _, m := range []*Optional[Measurement]{&p.HeightInches, &p.WidthInches, &p.WeightOz} {
		if m.Set && !m.Null && !m.Value.Valid {
			m.Null = true
		}
	}
}

// Columns maps supplied fields to columns.  The date must already be validated.
func (p *GrowthRecordPatch) Columns() map[string]any {
	out := map[string]any{}
	if p.Date.Set && !p.Date.Null {
		if d, err := ParseDate(p.Date.Value); err == nil {
			out["date"] = d
		}
	}
	for col, m := range map[string]*Optional[Measurement]{
		"height_inches": &p.HeightInches,
		"width_inches":  &p.WidthInches,
		"weight_oz":     &p.WeightOz,
	} {
		if !m.Set {
			continue
		}
		if m.Null {
			out[col] = nil
		} else {
			out[col] = m.Value.Decimal
		}
	}
	if p.Observations.Set {
		if p.Observations.Null {
			out["observations"] = nil
		} else {
			out["observations"] = p.Observations.Value
		}
	}
	return out
}
