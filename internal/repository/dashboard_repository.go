package repository

import (
	"context"
	"time"

	"github.com/iliyamo/cactilog/internal/database"
	"github.com/iliyamo/cactilog/internal/model"
)

// statsQuery computes every dashboard counter in one round trip.
const statsQuery = `SELECT
	(SELECT COUNT(*) FROM plants WHERE user_id = ?) AS total_plants,
	(SELECT COUNT(DISTINCT genus) FROM plants WHERE user_id = ?) AS unique_genera,
	(SELECT COUNT(*) FROM plants WHERE user_id = ? AND created_at >= ?) AS recent_additions,
	(SELECT COUNT(*) FROM growth_records g JOIN plants p ON p.id = g.plant_id WHERE p.user_id = ?) AS growth_records`

// DashboardRepo serves the aggregate counters of the dashboard.
type DashboardRepo struct{ db *database.DB }

func NewDashboardRepo(db *database.DB) *DashboardRepo { return &DashboardRepo{db: db} }

// Stats counts the user's collection.  Plants created within
// model.RecentWindow before now count as recent additions.
func (r *DashboardRepo) Stats(ctx context.Context, userID string, now time.Time) (model.DashboardStats, error) {
	var st model.DashboardStats
	since := now.Add(-model.RecentWindow)
	err := r.db.GetContext(ctx, &st, r.db.Rebind(statsQuery), userID, userID, userID, since, userID)
	return st, err
}
