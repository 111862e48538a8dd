package shipmark

import (
	"fmt"
	"strings"

	"github.com/seatrack/cargo-backend/internal/database"
)

// ValidateNewRule checks a rule being created or updated against the
// existing rule set. An exact active duplicate of (country, region,
// priority) is ambiguous and returns *InvalidRulePriorityError. A rule
// covering the same region at a different priority is legal but
// usually unintended shadowing; those come back as warnings for the
// caller to log.
func ValidateNewRule(candidate *database.ShippingMarkRule, existing []*database.ShippingMarkRule) ([]string, error) {
	if !candidate.IsActive {
		return nil, nil
	}

	var warnings []string
	for _, rule := range existing {
		if rule.ID == candidate.ID || !rule.IsActive {
			continue
		}
		if !strings.EqualFold(rule.Country, candidate.Country) {
			continue
		}
		if !sameRegion(rule.Region, candidate.Region) {
			continue
		}

		if rule.Priority == candidate.Priority {
			return warnings, &InvalidRulePriorityError{
				Country:  candidate.Country,
				Region:   regionString(candidate.Region),
				Priority: candidate.Priority,
			}
		}

		warnings = append(warnings, fmt.Sprintf(
			"rule %s already covers country %q region %s at priority %d; the lower priority value wins",
			rule.ID, rule.Country, regionString(rule.Region), rule.Priority,
		))
	}

	return warnings, nil
}

func sameRegion(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return strings.EqualFold(*a, *b)
}

func regionString(region *string) string {
	if region == nil {
		return "<none>"
	}
	return *region
}
