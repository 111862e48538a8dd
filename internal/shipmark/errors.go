package shipmark

import "fmt"

// NoApplicableRuleError indicates that no regional rule matched and the
// country has no default rule. Mark assignment cannot proceed; the
// operator must configure a default rule for the country.
type NoApplicableRuleError struct {
	Country string
	Region  string
}

func (e *NoApplicableRuleError) Error() string {
	return fmt.Sprintf(
		"no shipping-mark rule matches region %q and no default rule exists for country %q: configure a default rule for %s",
		e.Region, e.Country, e.Country,
	)
}

// UniquenessConflictError indicates that a resolved mark lost a race
// against a concurrent assignment. The caller should refresh the
// existing-mark set and resolve again.
type UniquenessConflictError struct {
	Mark string
}

func (e *UniquenessConflictError) Error() string {
	return fmt.Sprintf("shipping mark %q was assigned concurrently", e.Mark)
}

// InvalidRulePriorityError indicates a rule being saved would be
// ambiguous with an existing active rule at the same country, region
// and priority.
type InvalidRulePriorityError struct {
	Country  string
	Region   string
	Priority int
}

func (e *InvalidRulePriorityError) Error() string {
	region := e.Region
	if region == "" {
		region = "<none>"
	}
	return fmt.Sprintf(
		"an active rule already exists for country %q region %s at priority %d",
		e.Country, region, e.Priority,
	)
}
