package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWhereClause(t *testing.T) {
	allowed := map[string]bool{"country": true, "status": true}

	t.Run("Always Excludes Soft Deleted", func(t *testing.T) {
		clause, args, next := buildWhereClause(Filter{}, allowed, "")
		assert.Equal(t, "WHERE deleted_at IS NULL", clause)
		assert.Empty(t, args)
		assert.Equal(t, 1, next)
	})

	t.Run("Whitelisted Filter Becomes Positional Arg", func(t *testing.T) {
		filter := Filter{Filters: map[string]string{"country": "Ghana"}}
		clause, args, next := buildWhereClause(filter, allowed, "")
		assert.Equal(t, "WHERE deleted_at IS NULL AND country = $1", clause)
		assert.Equal(t, []interface{}{"Ghana"}, args)
		assert.Equal(t, 2, next)
	})

	t.Run("Unknown Columns Ignored", func(t *testing.T) {
		filter := Filter{Filters: map[string]string{"password": "x", "country": ""}}
		clause, args, _ := buildWhereClause(filter, allowed, "")
		assert.Equal(t, "WHERE deleted_at IS NULL", clause)
		assert.Empty(t, args)
	})

	t.Run("Date Range Bounds", func(t *testing.T) {
		from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
		filter := Filter{DateFrom: &from, DateTo: &to}

		clause, args, next := buildWhereClause(filter, allowed, "created_at")
		assert.Equal(t, "WHERE deleted_at IS NULL AND created_at >= $1 AND created_at <= $2", clause)
		require.Len(t, args, 2)
		assert.Equal(t, from, args[0])
		assert.Equal(t, to, args[1])
		assert.Equal(t, 3, next)
	})
}

func TestBuildOrderClause(t *testing.T) {
	allowed := map[string]bool{"created_at": true, "priority": true}

	t.Run("Defaults To Descending Default Sort", func(t *testing.T) {
		assert.Equal(t, "ORDER BY created_at DESC", buildOrderClause(Filter{}, allowed, "created_at"))
	})

	t.Run("Sortable Column Honored", func(t *testing.T) {
		filter := Filter{SortBy: "priority", SortOrder: "asc"}
		assert.Equal(t, "ORDER BY priority ASC", buildOrderClause(filter, allowed, "created_at"))
	})

	t.Run("Unsortable Column Falls Back", func(t *testing.T) {
		filter := Filter{SortBy: "password"}
		assert.Equal(t, "ORDER BY created_at DESC", buildOrderClause(filter, allowed, "created_at"))
	})
}

func TestBuildLimitClause(t *testing.T) {
	t.Run("Defaults And Caps", func(t *testing.T) {
		for _, tc := range []struct {
			limit    int
			expected int
		}{
			{0, 100},
			{-5, 100},
			{50, 50},
			{500, 500},
			{501, 100},
		} {
			args := make([]interface{}, 0)
			argIndex := 1
			clause := buildLimitClause(Filter{Limit: tc.limit}, &argIndex, &args)
			assert.Equal(t, "LIMIT $1", clause)
			require.Len(t, args, 1)
			assert.Equal(t, tc.expected, args[0], "limit %d", tc.limit)
		}
	})

	t.Run("Offset Appended When Positive", func(t *testing.T) {
		args := make([]interface{}, 0)
		argIndex := 1
		clause := buildLimitClause(Filter{Limit: 20, Offset: 40}, &argIndex, &args)
		assert.Equal(t, "LIMIT $1 OFFSET $2", clause)
		assert.Equal(t, []interface{}{20, 40}, args)
		assert.Equal(t, 3, argIndex)
	})
}

func TestIsUniqueViolation(t *testing.T) {
	t.Run("Nil And Plain Errors", func(t *testing.T) {
		assert.False(t, IsUniqueViolation(nil, ""))
		assert.False(t, IsUniqueViolation(assert.AnError, ""))
	})

	t.Run("Unique Violation Code", func(t *testing.T) {
		err := &pq.Error{Code: "23505", Constraint: "customers_shipping_mark_key"}
		assert.True(t, IsUniqueViolation(err, ""))
		assert.True(t, IsUniqueViolation(err, "customers_shipping_mark_key"))
		assert.False(t, IsUniqueViolation(err, "other_constraint"))
	})

	t.Run("Other Postgres Errors", func(t *testing.T) {
		assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}, ""))
	})

	t.Run("Wrapped Errors Unwrapped", func(t *testing.T) {
		wrapped := fmt.Errorf("insert failed: %w", &pq.Error{Code: "23505"})
		assert.True(t, IsUniqueViolation(wrapped, ""))
	})
}
