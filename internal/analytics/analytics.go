// Package analytics derives growth trends from a collector's plants and
// growth records.  It works on rows already fetched and owner-filtered by
// the repositories.
package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/cactilog/internal/model"
)

// byPlant groups records per plant in chronological order.  Records of
// plants not in the list are dropped.
func byPlant(plants []model.Plant, records []model.GrowthRecord) map[int64][]model.GrowthRecord {
	out := make(map[int64][]model.GrowthRecord, len(plants))
	for _, p := range plants {
		out[p.ID] = nil
	}
	for _, r := range records {
		if _, ok := out[r.PlantID]; ok {
			out[r.PlantID] = append(out[r.PlantID], r)
		}
	}
	for _, rs := range out {
		sort.SliceStable(rs, func(i, j int) bool {
			if !rs[i].Date.Equal(rs[j].Date) {
				return rs[i].Date.Before(rs[j].Date)
			}
			return rs[i].ID < rs[j].ID
		})
	}
	return out
}

// Summarize attaches the record count and latest record to each plant.
// Plant order is preserved.
func Summarize(plants []model.Plant, records []model.GrowthRecord) []model.PlantGrowthSummary {
	grouped := byPlant(plants, records)
	out := make([]model.PlantGrowthSummary, 0, len(plants))
	for _, p := range plants {
		s := model.PlantGrowthSummary{Plant: p}
		if rs := grouped[p.ID]; len(rs) > 0 {
			latest := rs[len(rs)-1]
			s.GrowthRecordCount = len(rs)
			s.LatestGrowthRecord = &latest
		}
		out = append(out, s)
	}
	return out
}

// Analyze computes per-plant and per-genus growth.  Plants without any
// record are left out.  Plants are ordered by their latest record, newest
// first; genera alphabetically.
func Analyze(plants []model.Plant, records []model.GrowthRecord) model.GrowthAnalytics {
	grouped := byPlant(plants, records)
	res := model.GrowthAnalytics{Plants: []model.PlantGrowth{}, Genera: []model.GenusGrowth{}}

	genera := map[string]*genusAcc{}
	for _, p := range plants {
		rs := grouped[p.ID]
		if len(rs) == 0 {
			continue
		}
		pg := plantGrowth(p, rs)
		res.Plants = append(res.Plants, pg)
		res.TotalRecords += len(rs)

		acc, ok := genera[p.Genus]
		if !ok {
			acc = &genusAcc{}
			genera[p.Genus] = acc
		}
		acc.add(pg)
	}
	res.PlantsWithGrowth = len(res.Plants)

	sort.SliceStable(res.Plants, func(i, j int) bool {
		a, b := res.Plants[i].LatestRecordDate, res.Plants[j].LatestRecordDate
		if !a.Equal(*b) {
			return a.After(*b)
		}
		return res.Plants[i].PlantID > res.Plants[j].PlantID
	})
	for genus, acc := range genera {
		res.Genera = append(res.Genera, acc.result(genus))
	}
	sort.Slice(res.Genera, func(i, j int) bool { return res.Genera[i].Genus < res.Genera[j].Genus })
	return res
}

func plantGrowth(p model.Plant, rs []model.GrowthRecord) model.PlantGrowth {
	first, last := rs[0].Date, rs[len(rs)-1].Date
	pg := model.PlantGrowth{
		PlantID:          p.ID,
		CustomID:         p.CustomID,
		Genus:            p.Genus,
		Species:          p.Species,
		CommonName:       p.CommonName,
		RecordCount:      len(rs),
		FirstRecordDate:  timePtr(first),
		LatestRecordDate: timePtr(last),
	}
	height := func(r model.GrowthRecord) model.Measurement { return r.HeightInches }
	width := func(r model.GrowthRecord) model.Measurement { return r.WidthInches }
	weight := func(r model.GrowthRecord) model.Measurement { return r.WeightOz }

	pg.InitialHeight, pg.LatestHeight = bounds(rs, height)
	pg.HeightChange = change(pg.InitialHeight, pg.LatestHeight)
	pg.InitialWidth, pg.LatestWidth = bounds(rs, width)
	pg.WidthChange = change(pg.InitialWidth, pg.LatestWidth)
	_, pg.LatestWeight = bounds(rs, weight)
	return pg
}

// bounds returns the first and last non-null value of a measurement.
func bounds(rs []model.GrowthRecord, get func(model.GrowthRecord) model.Measurement) (first, last model.Measurement) {
	for _, r := range rs {
		if m := get(r); m.Valid {
			first = m
			break
		}
	}
	for i := len(rs) - 1; i >= 0; i-- {
		if m := get(rs[i]); m.Valid {
			last = m
			break
		}
	}
	return first, last
}

func change(from, to model.Measurement) model.Measurement {
	if !from.Valid || !to.Valid {
		return model.Measurement{}
	}
	return model.MeasurementOf(to.Decimal.Sub(from.Decimal))
}

type genusAcc struct {
	plants, records int
	height, width   []decimal.Decimal
}

func (a *genusAcc) add(pg model.PlantGrowth) {
	a.plants++
	a.records += pg.RecordCount
	if pg.HeightChange.Valid {
		a.height = append(a.height, pg.HeightChange.Decimal)
	}
	if pg.WidthChange.Valid {
		a.width = append(a.width, pg.WidthChange.Decimal)
	}
}

func (a *genusAcc) result(genus string) model.GenusGrowth {
	return model.GenusGrowth{
		Genus:               genus,
		PlantCount:          a.plants,
		RecordCount:         a.records,
		AverageHeightChange: average(a.height),
		AverageWidthChange:  average(a.width),
	}
}

// average is rounded to two places like the stored measurements.
func average(ds []decimal.Decimal) model.Measurement {
	if len(ds) == 0 {
		return model.Measurement{}
	}
	return model.MeasurementOf(decimal.Avg(ds[0], ds[1:]...).Round(2))
}

func timePtr(t time.Time) *time.Time { return &t }
