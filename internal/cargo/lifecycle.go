// Package cargo derives container and item lifecycle state and
// time-based metrics. Everything here is a pure function of a record
// plus a timestamp; stored status fields are never mutated.
package cargo

import (
	"fmt"
	"math"
	"time"

	"github.com/seatrack/cargo-backend/internal/database"
)

// Container statuses. Transitions are operator-initiated; delivered is
// not terminal.
const (
	StatusPending   = "pending"
	StatusInTransit = "in_transit"
	StatusDelivered = "delivered"
	StatusDemurrage = "demurrage"
)

// Cargo item statuses. Independent of the owning container's status.
const (
	ItemStatusPending   = "pending"
	ItemStatusInTransit = "in_transit"
	ItemStatusDelivered = "delivered"
	ItemStatusDelayed   = "delayed"
)

// Cargo types
const (
	TypeSea = "sea"
	TypeAir = "air"
)

// ValidContainerStatus reports whether s is a known container status
func ValidContainerStatus(s string) bool {
	switch s {
	case StatusPending, StatusInTransit, StatusDelivered, StatusDemurrage:
		return true
	}
	return false
}

// ValidItemStatus reports whether s is a known cargo item status
func ValidItemStatus(s string) bool {
	switch s {
	case ItemStatusPending, ItemStatusInTransit, ItemStatusDelivered, ItemStatusDelayed:
		return true
	}
	return false
}

// ValidCargoType reports whether t is a known cargo type
func ValidCargoType(t string) bool {
	return t == TypeSea || t == TypeAir
}

// IsOverdue reports whether the ETA has passed. A nil ETA is never
// overdue; an ETA equal to now is on time.
func IsOverdue(eta *time.Time, now time.Time) bool {
	return eta != nil && eta.Before(now)
}

// DaysLate returns how many days past its ETA a shipment is, rounded
// up with a floor of one so the boundary never reads "0 days late".
// Returns 0 when the shipment is not overdue.
func DaysLate(eta *time.Time, now time.Time) int {
	if !IsOverdue(eta, now) {
		return 0
	}
	days := int(math.Ceil(now.Sub(*eta).Hours() / 24))
	if days < 1 {
		days = 1
	}
	return days
}

// FormatRelative renders an ETA for display: "in N days", "N days
// ago" or "arriving today". Presentation only, not state.
func FormatRelative(eta *time.Time, now time.Time) string {
	if eta == nil {
		return ""
	}

	if IsOverdue(eta, now) {
		return pluralDays(DaysLate(eta, now)) + " ago"
	}

	days := int(math.Ceil(eta.Sub(now).Hours() / 24))
	if days <= 0 {
		return "arriving today"
	}
	return "in " + pluralDays(days)
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// View is the derived, non-persisted augmentation of a container
// record, recomputed on every read.
type View struct {
	IsOverdue  bool   `json:"is_overdue"`
	DaysLate   int    `json:"days_late,omitempty"`
	ETADisplay string `json:"eta_display,omitempty"`

	// IsDemurrage is the aggregate-view flag: explicit demurrage
	// status, or stay days beyond the policy threshold. Individual
	// records keep the stored status as the source of truth.
	IsDemurrage bool `json:"is_demurrage"`
}

// ContainerView pairs a stored container with its derived fields.
type ContainerView struct {
	*database.CargoContainer
	View
}

// Augment computes the derived view for a container.
// demurrageThresholdDays is the stay-day policy cutoff used for
// aggregate demurrage detection.
func Augment(container *database.CargoContainer, now time.Time, demurrageThresholdDays int) ContainerView {
	return ContainerView{
		CargoContainer: container,
		View: View{
			IsOverdue:   IsOverdue(container.ETA, now),
			DaysLate:    DaysLate(container.ETA, now),
			ETADisplay:  FormatRelative(container.ETA, now),
			IsDemurrage: container.Status == StatusDemurrage || container.StayDays > demurrageThresholdDays,
		},
	}
}

// AugmentAll computes derived views for a container collection.
func AugmentAll(containers []*database.CargoContainer, now time.Time, demurrageThresholdDays int) []ContainerView {
	views := make([]ContainerView, 0, len(containers))
	for _, container := range containers {
		views = append(views, Augment(container, now, demurrageThresholdDays))
	}
	return views
}
