// Package shipmark resolves unique shipping marks for customers from a
// prioritized set of regional rules. Resolution is a pure function of
// the rule set, the existing-mark set and the customer name; callers
// own persistence and retry on uniqueness races.
package shipmark

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/seatrack/cargo-backend/internal/database"
)

// Request carries the inputs for a single mark resolution.
type Request struct {
	CustomerName string
	Country      string
	Region       string

	// Rules is the candidate rule set, typically every active rule
	// for the country. Inactive rows and rows for other countries
	// are ignored.
	Rules []*database.ShippingMarkRule

	// ExistingMarks is the collision set: every mark already
	// assigned within the uniqueness scope.
	ExistingMarks map[string]struct{}
}

// Resolve selects the applicable rule and returns the first candidate
// mark that does not collide with the existing-mark set. Candidates
// are tried in a fixed total order: each name token bare, then each
// token with numeric suffixes 2, 3, 4 and so on, which guarantees
// termination. Returns *NoApplicableRuleError when neither a regional
// nor a default rule applies.
func Resolve(req Request) (string, error) {
	rule, err := SelectRule(req.Rules, req.Country, req.Region)
	if err != nil {
		return "", err
	}

	tokens := NameTokens(req.CustomerName)
	if len(tokens) == 0 {
		return "", fmt.Errorf("customer name %q has no usable name parts", req.CustomerName)
	}

	for _, token := range tokens {
		mark := ExpandTemplate(rule.FormatTemplate, rule.PrefixValue, token)
		if _, taken := req.ExistingMarks[mark]; !taken {
			return mark, nil
		}
	}

	for suffix := 2; ; suffix++ {
		for _, token := range tokens {
			mark := ExpandTemplate(rule.FormatTemplate, rule.PrefixValue, token+strconv.Itoa(suffix))
			if _, taken := req.ExistingMarks[mark]; !taken {
				return mark, nil
			}
		}
	}
}

// SelectRule picks the winning rule for a country/region pair. A rule
// whose region matches wins over the default; among several regional
// matches the lowest priority value wins, ties broken by lowest rule
// id. Duplicate priorities should be rejected at rule creation, but
// are tolerated here with the deterministic tie-break.
func SelectRule(rules []*database.ShippingMarkRule, country, region string) (*database.ShippingMarkRule, error) {
	var regional []*database.ShippingMarkRule
	var defaults []*database.ShippingMarkRule

	for _, rule := range rules {
		if !rule.IsActive || !strings.EqualFold(rule.Country, country) {
			continue
		}
		if rule.Region != nil && region != "" && strings.EqualFold(*rule.Region, region) {
			regional = append(regional, rule)
		}
		if rule.IsDefault {
			defaults = append(defaults, rule)
		}
	}

	if len(regional) > 0 {
		sortRules(regional)
		return regional[0], nil
	}
	if len(defaults) > 0 {
		sortRules(defaults)
		return defaults[0], nil
	}

	return nil, &NoApplicableRuleError{Country: country, Region: region}
}

func sortRules(rules []*database.ShippingMarkRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority < rules[j].Priority
		}
		return rules[i].ID < rules[j].ID
	})
}

// ExpandTemplate composes a mark from a rule's format template. The
// template understands {prefix}, {space} and {name}; an empty template
// means "{prefix}{space}{name}".
func ExpandTemplate(template, prefix, nameToken string) string {
	if template == "" {
		template = "{prefix}{space}{name}"
	}
	replacer := strings.NewReplacer(
		"{prefix}", prefix,
		"{space}", " ",
		"{name}", nameToken,
	)
	return replacer.Replace(template)
}
