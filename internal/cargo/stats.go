package cargo

import (
	"time"

	"github.com/seatrack/cargo-backend/internal/database"
)

// StatusCounts holds per-status container tallies for the dashboard.
// The four buckets always sum to Total.
type StatusCounts struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	InTransit int `json:"in_transit"`
	Delivered int `json:"delivered"`
	Demurrage int `json:"demurrage"`
}

// DisplayCounts is the simplified 4-bucket model some dashboard pages
// use, with demurrage folded into delayed.
type DisplayCounts struct {
	Pending   int `json:"pending"`
	InTransit int `json:"in_transit"`
	Delivered int `json:"delivered"`
	Delayed   int `json:"delayed"`
}

// CountByStatus tallies a container collection by status in a single
// pass. Unknown statuses count toward Total only.
func CountByStatus(containers []*database.CargoContainer) StatusCounts {
	var counts StatusCounts
	for _, container := range containers {
		counts.Total++
		switch container.Status {
		case StatusPending:
			counts.Pending++
		case StatusInTransit:
			counts.InTransit++
		case StatusDelivered:
			counts.Delivered++
		case StatusDemurrage:
			counts.Demurrage++
		}
	}
	return counts
}

// DisplayBuckets maps the full status counts onto the simplified
// display model. This is the single place demurrage becomes delayed.
func (c StatusCounts) DisplayBuckets() DisplayCounts {
	return DisplayCounts{
		Pending:   c.Pending,
		InTransit: c.InTransit,
		Delivered: c.Delivered,
		Delayed:   c.Demurrage,
	}
}

// DashboardStats is the aggregate payload for the dashboard summary.
type DashboardStats struct {
	Containers StatusCounts  `json:"containers"`
	Display    DisplayCounts `json:"display"`
	Sea        StatusCounts  `json:"sea"`
	Air        StatusCounts  `json:"air"`

	// OverdueCount and DemurrageCount are derived with the policy
	// threshold, not just the stored status.
	OverdueCount   int `json:"overdue_count"`
	DemurrageCount int `json:"demurrage_count"`

	GeneratedAt time.Time `json:"generated_at"`
}

// BuildDashboardStats aggregates a container collection into the
// dashboard summary.
func BuildDashboardStats(containers []*database.CargoContainer, now time.Time, demurrageThresholdDays int) DashboardStats {
	var sea, air []*database.CargoContainer
	overdue, demurrage := 0, 0

	for _, container := range containers {
		switch container.CargoType {
		case TypeSea:
			sea = append(sea, container)
		case TypeAir:
			air = append(air, container)
		}
		if IsOverdue(container.ETA, now) {
			overdue++
		}
		if container.Status == StatusDemurrage || container.StayDays > demurrageThresholdDays {
			demurrage++
		}
	}

	counts := CountByStatus(containers)
	return DashboardStats{
		Containers:     counts,
		Display:        counts.DisplayBuckets(),
		Sea:            CountByStatus(sea),
		Air:            CountByStatus(air),
		OverdueCount:   overdue,
		DemurrageCount: demurrage,
		GeneratedAt:    now,
	}
}
