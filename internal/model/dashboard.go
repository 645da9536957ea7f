package model

import "time"

// DashboardStats is the summary shown on the collection dashboard.
type DashboardStats struct {
	TotalPlants     int64 `db:"total_plants" json:"totalPlants"`
	UniqueGenera    int64 `db:"unique_genera" json:"uniqueGenera"`
	RecentAdditions int64 `db:"recent_additions" json:"recentAdditions"`
	GrowthRecords   int64 `db:"growth_records" json:"growthRecords"`
}

// RecentWindow is how far back a plant counts as a recent addition.
const RecentWindow = 30 * 24 * time.Hour

// PlantGrowthSummary is a plant with its growth history condensed.
type PlantGrowthSummary struct {
	Plant
	GrowthRecordCount  int           `json:"growthRecordCount"`
	LatestGrowthRecord *GrowthRecord `json:"latestGrowthRecord"`
}

// PlantGrowth is the growth trend of one plant between its first and its
// latest record.
type PlantGrowth struct {
	PlantID          int64       `json:"plantId"`
	CustomID         *string     `json:"customId"`
	Genus            string      `json:"genus"`
	Species          *string     `json:"species"`
	CommonName       *string     `json:"commonName"`
	RecordCount      int         `json:"recordCount"`
	FirstRecordDate  *time.Time  `json:"firstRecordDate"`
	LatestRecordDate *time.Time  `json:"latestRecordDate"`
	InitialHeight    Measurement `json:"initialHeight"`
	LatestHeight     Measurement `json:"latestHeight"`
	HeightChange     Measurement `json:"heightChange"`
	InitialWidth     Measurement `json:"initialWidth"`
	LatestWidth      Measurement `json:"latestWidth"`
	WidthChange      Measurement `json:"widthChange"`
	LatestWeight     Measurement `json:"latestWeight"`
}

// GenusGrowth aggregates growth per genus.
type GenusGrowth struct {
	Genus               string      `json:"genus"`
	PlantCount          int         `json:"plantCount"`
	RecordCount         int         `json:"recordCount"`
	AverageHeightChange Measurement `json:"averageHeightChange"`
	AverageWidthChange  Measurement `json:"averageWidthChange"`
}

// GrowthAnalytics is the response of GET /api/analytics/growth.
type GrowthAnalytics struct {
	TotalRecords     int           `json:"totalRecords"`
	PlantsWithGrowth int           `json:"plantsWithGrowth"`
	Plants           []PlantGrowth `json:"plants"`
	Genera           []GenusGrowth `json:"genera"`
}
