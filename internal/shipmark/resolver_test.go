package shipmark

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatrack/cargo-backend/internal/database"
)

func strPtr(s string) *string { return &s }

func ghanaRules() []*database.ShippingMarkRule {
	return []*database.ShippingMarkRule{
		{
			ID:             "rule-accra",
			Country:        "Ghana",
			Region:         strPtr("GREATER_ACCRA"),
			PrefixValue:    "1",
			FormatTemplate: "{prefix}{space}{name}",
			Priority:       1,
			IsActive:       true,
		},
		{
			ID:             "rule-default",
			Country:        "Ghana",
			Region:         nil,
			PrefixValue:    "0",
			FormatTemplate: "{prefix}{space}{name}",
			Priority:       10,
			IsActive:       true,
			IsDefault:      true,
		},
	}
}

func TestSelectRule(t *testing.T) {
	t.Run("Regional Match Wins Over Default", func(t *testing.T) {
		rule, err := SelectRule(ghanaRules(), "Ghana", "GREATER_ACCRA")
		require.NoError(t, err)
		assert.Equal(t, "rule-accra", rule.ID)
	})

	t.Run("Default Used When Region Unmatched", func(t *testing.T) {
		rule, err := SelectRule(ghanaRules(), "Ghana", "ASHANTI")
		require.NoError(t, err)
		assert.Equal(t, "rule-default", rule.ID)
	})

	t.Run("No Default And No Match Fails", func(t *testing.T) {
		rules := ghanaRules()[:1]
		_, err := SelectRule(rules, "Ghana", "ASHANTI")
		var noRule *NoApplicableRuleError
		require.ErrorAs(t, err, &noRule)
		assert.Equal(t, "Ghana", noRule.Country)
		assert.Equal(t, "ASHANTI", noRule.Region)
		assert.Contains(t, noRule.Error(), "Ghana")
	})

	t.Run("Lowest Priority Wins Among Duplicates", func(t *testing.T) {
		rules := []*database.ShippingMarkRule{
			{ID: "b", Country: "Ghana", Region: strPtr("VOLTA"), PrefixValue: "5", Priority: 2, IsActive: true},
			{ID: "a", Country: "Ghana", Region: strPtr("VOLTA"), PrefixValue: "7", Priority: 1, IsActive: true},
		}
		rule, err := SelectRule(rules, "Ghana", "VOLTA")
		require.NoError(t, err)
		assert.Equal(t, "a", rule.ID)
	})

	t.Run("Priority Tie Broken By Lowest ID", func(t *testing.T) {
		rules := []*database.ShippingMarkRule{
			{ID: "zz", Country: "Ghana", Region: strPtr("VOLTA"), PrefixValue: "5", Priority: 1, IsActive: true},
			{ID: "aa", Country: "Ghana", Region: strPtr("VOLTA"), PrefixValue: "7", Priority: 1, IsActive: true},
		}
		rule, err := SelectRule(rules, "Ghana", "VOLTA")
		require.NoError(t, err)
		assert.Equal(t, "aa", rule.ID)
	})

	t.Run("Inactive Rules Ignored", func(t *testing.T) {
		rules := ghanaRules()
		rules[0].IsActive = false
		rule, err := SelectRule(rules, "Ghana", "GREATER_ACCRA")
		require.NoError(t, err)
		assert.Equal(t, "rule-default", rule.ID)
	})

	t.Run("Other Countries Ignored", func(t *testing.T) {
		rules := []*database.ShippingMarkRule{
			{ID: "ng", Country: "Nigeria", Region: nil, PrefixValue: "9", IsActive: true, IsDefault: true},
		}
		_, err := SelectRule(rules, "Ghana", "ASHANTI")
		var noRule *NoApplicableRuleError
		assert.ErrorAs(t, err, &noRule)
	})
}

func TestResolve(t *testing.T) {
	t.Run("Regional Prefix Applied", func(t *testing.T) {
		mark, err := Resolve(Request{
			CustomerName:  "John Doe",
			Country:       "Ghana",
			Region:        "GREATER_ACCRA",
			Rules:         ghanaRules(),
			ExistingMarks: map[string]struct{}{},
		})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(mark, "1 "), "expected regional prefix, got %q", mark)
		assert.Len(t, mark, 6)
	})

	t.Run("Default Prefix For Unmatched Region", func(t *testing.T) {
		mark, err := Resolve(Request{
			CustomerName:  "Jane Roe",
			Country:       "Ghana",
			Region:        "ASHANTI",
			Rules:         ghanaRules(),
			ExistingMarks: map[string]struct{}{},
		})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(mark, "0 "), "expected default prefix, got %q", mark)
	})

	t.Run("Empty Existing Set Returns First Token", func(t *testing.T) {
		mark, err := Resolve(Request{
			CustomerName:  "John Doe",
			Country:       "Ghana",
			Region:        "GREATER_ACCRA",
			Rules:         ghanaRules(),
			ExistingMarks: map[string]struct{}{},
		})
		require.NoError(t, err)
		assert.Equal(t, "1 "+NameTokens("John Doe")[0], mark)
	})

	t.Run("Collision Moves To Next Token", func(t *testing.T) {
		tokens := NameTokens("John Doe")
		existing := map[string]struct{}{
			"1 " + tokens[0]: {},
		}
		mark, err := Resolve(Request{
			CustomerName:  "John Doe",
			Country:       "Ghana",
			Region:        "GREATER_ACCRA",
			Rules:         ghanaRules(),
			ExistingMarks: existing,
		})
		require.NoError(t, err)
		assert.Equal(t, "1 "+tokens[1], mark)
	})

	t.Run("Numeric Suffix After Token Exhaustion", func(t *testing.T) {
		tokens := NameTokens("John Doe")
		existing := make(map[string]struct{})
		for _, token := range tokens {
			existing["1 "+token] = struct{}{}
		}
		mark, err := Resolve(Request{
			CustomerName:  "John Doe",
			Country:       "Ghana",
			Region:        "GREATER_ACCRA",
			Rules:         ghanaRules(),
			ExistingMarks: existing,
		})
		require.NoError(t, err)
		assert.Equal(t, "1 "+tokens[0]+"2", mark)
	})

	t.Run("No Duplicates Across Fifty Sequential Calls", func(t *testing.T) {
		existing := make(map[string]struct{})
		for i := 0; i < 50; i++ {
			mark, err := Resolve(Request{
				CustomerName:  "John Doe",
				Country:       "Ghana",
				Region:        "GREATER_ACCRA",
				Rules:         ghanaRules(),
				ExistingMarks: existing,
			})
			require.NoError(t, err)
			_, seen := existing[mark]
			require.False(t, seen, "call %d returned duplicate mark %q", i+1, mark)
			existing[mark] = struct{}{}
		}
	})

	t.Run("Empty Name Rejected", func(t *testing.T) {
		_, err := Resolve(Request{
			CustomerName:  "   ",
			Country:       "Ghana",
			Region:        "GREATER_ACCRA",
			Rules:         ghanaRules(),
			ExistingMarks: map[string]struct{}{},
		})
		require.Error(t, err)
		var noRule *NoApplicableRuleError
		assert.False(t, errors.As(err, &noRule))
	})

	t.Run("No Applicable Rule Surfaces Typed Error", func(t *testing.T) {
		_, err := Resolve(Request{
			CustomerName:  "John Doe",
			Country:       "Togo",
			Region:        "MARITIME",
			Rules:         ghanaRules(),
			ExistingMarks: map[string]struct{}{},
		})
		var noRule *NoApplicableRuleError
		require.ErrorAs(t, err, &noRule)
		assert.Equal(t, "Togo", noRule.Country)
	})
}

func TestExpandTemplate(t *testing.T) {
	t.Run("Standard Template", func(t *testing.T) {
		assert.Equal(t, "GA JODO", ExpandTemplate("{prefix}{space}{name}", "GA", "JODO"))
	})

	t.Run("No Separator", func(t *testing.T) {
		assert.Equal(t, "GAJODO", ExpandTemplate("{prefix}{name}", "GA", "JODO"))
	})

	t.Run("Literal Text Preserved", func(t *testing.T) {
		assert.Equal(t, "GA-JODO", ExpandTemplate("{prefix}-{name}", "GA", "JODO"))
	})

	t.Run("Empty Template Uses Default", func(t *testing.T) {
		assert.Equal(t, "GA JODO", ExpandTemplate("", "GA", "JODO"))
	})
}

func TestResolveMatchesTemplateExactly(t *testing.T) {
	rules := []*database.ShippingMarkRule{
		{ID: "r1", Country: "Ghana", Region: nil, PrefixValue: "GH", FormatTemplate: "{prefix}-{name}", Priority: 1, IsActive: true, IsDefault: true},
	}

	mark, err := Resolve(Request{
		CustomerName:  "Ama Mensah",
		Country:       "Ghana",
		Region:        "ASHANTI",
		Rules:         rules,
		ExistingMarks: map[string]struct{}{},
	})
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("GH-%s", NameTokens("Ama Mensah")[0]), mark)
}
