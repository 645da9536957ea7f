package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalTriState(t *testing.T) {
	var p PlantPatch
	require.NoError(t, json.Unmarshal([]byte(`{"notes":null,"genus":"Aloe"}`), &p))

	assert.False(t, p.Species.Set, "absent key")
	assert.True(t, p.Notes.Set)
	assert.True(t, p.Notes.Null)
	assert.Nil(t, p.Notes.Ptr())
	assert.Equal(t, Some("Aloe"), p.Genus)
}

func TestPlantPatchColumns(t *testing.T) {
	var p PlantPatch
	require.NoError(t, json.Unmarshal([]byte(`{"species":"  ","commonName":" Bishop's cap ","type":"CACTUS"}`), &p))
	p.Normalize()

	assert.Equal(t, map[string]any{
		"species":     nil,
		"common_name": "Bishop's cap",
		"type":        "cactus",
	}, p.Columns())
}

func TestPlantInputDefaults(t *testing.T) {
	blank := "   "
	in := PlantInput{Type: " Cactus ", Genus: " Astrophytum ", Species: &blank}
	in.Normalize()
	p := in.Plant("u1")

	assert.Equal(t, "cactus", p.Type)
	assert.Equal(t, "Astrophytum", p.Genus)
	assert.Nil(t, p.Species)
	assert.Equal(t, VisibilityPublic, p.IsPublic)
	assert.Equal(t, "u1", p.UserID)
}

func TestMeasurementJSON(t *testing.T) {
	var r struct {
		A Measurement `json:"a"`
		B Measurement `json:"b"`
		C Measurement `json:"c"`
		D Measurement `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"4.25","b":3,"c":"","d":null}`), &r))
	assert.Equal(t, "4.25", r.A.Decimal.String())
	assert.Equal(t, "3", r.B.Decimal.String())
	assert.False(t, r.C.Valid)
	assert.False(t, r.D.Valid)

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"4.25","b":"3","c":null,"d":null}`, string(out))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-09")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2024-03-09T23:30:00-02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("09/03/2024")
	assert.Error(t, err)
}

func TestGrowthRecordDateJSON(t *testing.T) {
	d, err := ParseDate("2024-03-09")
	require.NoError(t, err)
	bs, err := json.Marshal(GrowthRecord{Date: d})
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(bs, &out))
	assert.Equal(t, "2024-03-09T00:00:00Z", out["date"])
}

func TestGrowthRecordPatchColumns(t *testing.T) {
	var p GrowthRecordPatch
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-01-02","heightInches":"","weightOz":"1.5","observations":"flower bud"}`), &p))
	p.Normalize()
	cols := p.Columns()

	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), cols["date"])
	v, ok := cols["height_inches"]
	assert.True(t, ok)
	assert.Nil(t, v)
	assert.NotContains(t, cols, "width_inches")
	assert.Equal(t, "1.5", cols["weight_oz"].(interface{ String() string }).String())
	assert.Equal(t, "flower bud", cols["observations"])
}

func TestSeedPatchColumns(t *testing.T) {
	var p SeedPatch
	require.NoError(t, json.Unmarshal([]byte(`{"quantity":null,"supplier":"Mesa Garden"}`), &p))
	p.Normalize()
	assert.Equal(t, map[string]any{"quantity": nil, "supplier": "Mesa Garden"}, p.Columns())
}

func TestPhotoURL(t *testing.T) {
	p := (&PlantPhoto{ID: 12}).WithURL()
	assert.Equal(t, "/api/photos/12/file", p.URL)
}
