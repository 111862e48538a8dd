package shipmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatrack/cargo-backend/internal/database"
)

func TestValidateNewRule(t *testing.T) {
	existing := []*database.ShippingMarkRule{
		{ID: "r1", Country: "Ghana", Region: strPtr("GREATER_ACCRA"), Priority: 1, IsActive: true},
		{ID: "r2", Country: "Ghana", Region: nil, Priority: 10, IsActive: true, IsDefault: true},
	}

	t.Run("Distinct Region Is Clean", func(t *testing.T) {
		candidate := &database.ShippingMarkRule{
			ID: "new", Country: "Ghana", Region: strPtr("ASHANTI"), Priority: 1, IsActive: true,
		}
		warnings, err := ValidateNewRule(candidate, existing)
		require.NoError(t, err)
		assert.Empty(t, warnings)
	})

	t.Run("Exact Priority Duplicate Rejected", func(t *testing.T) {
		candidate := &database.ShippingMarkRule{
			ID: "new", Country: "Ghana", Region: strPtr("GREATER_ACCRA"), Priority: 1, IsActive: true,
		}
		_, err := ValidateNewRule(candidate, existing)
		var priorityErr *InvalidRulePriorityError
		require.ErrorAs(t, err, &priorityErr)
		assert.Equal(t, 1, priorityErr.Priority)
	})

	t.Run("Same Region Different Priority Warns", func(t *testing.T) {
		candidate := &database.ShippingMarkRule{
			ID: "new", Country: "Ghana", Region: strPtr("GREATER_ACCRA"), Priority: 5, IsActive: true,
		}
		warnings, err := ValidateNewRule(candidate, existing)
		require.NoError(t, err)
		assert.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "r1")
	})

	t.Run("Duplicate Default Priority Rejected", func(t *testing.T) {
		candidate := &database.ShippingMarkRule{
			ID: "new", Country: "Ghana", Region: nil, Priority: 10, IsActive: true,
		}
		_, err := ValidateNewRule(candidate, existing)
		var priorityErr *InvalidRulePriorityError
		assert.ErrorAs(t, err, &priorityErr)
	})

	t.Run("Inactive Candidate Skips Validation", func(t *testing.T) {
		candidate := &database.ShippingMarkRule{
			ID: "new", Country: "Ghana", Region: strPtr("GREATER_ACCRA"), Priority: 1, IsActive: false,
		}
		warnings, err := ValidateNewRule(candidate, existing)
		require.NoError(t, err)
		assert.Empty(t, warnings)
	})

	t.Run("Updating A Rule Does Not Conflict With Itself", func(t *testing.T) {
		candidate := &database.ShippingMarkRule{
			ID: "r1", Country: "Ghana", Region: strPtr("GREATER_ACCRA"), Priority: 1, IsActive: true,
		}
		warnings, err := ValidateNewRule(candidate, existing)
		require.NoError(t, err)
		assert.Empty(t, warnings)
	})
}
