package database

import (
	"fmt"
	"strings"
)

// buildWhereClause builds a WHERE clause from the filter's column
// equality filters, restricted to the allowed column set. Returns the
// clause, the positional args and the next free arg index.
func buildWhereClause(filter Filter, allowed map[string]bool, dateColumn string) (string, []interface{}, int) {
	conditions := []string{"deleted_at IS NULL"}
	args := make([]interface{}, 0)
	argIndex := 1

	for column, value := range filter.Filters {
		if !allowed[column] || value == "" {
			continue
		}
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	if dateColumn != "" {
		if filter.DateFrom != nil {
			conditions = append(conditions, fmt.Sprintf("%s >= $%d", dateColumn, argIndex))
			args = append(args, *filter.DateFrom)
			argIndex++
		}
		if filter.DateTo != nil {
			conditions = append(conditions, fmt.Sprintf("%s <= $%d", dateColumn, argIndex))
			args = append(args, *filter.DateTo)
			argIndex++
		}
	}

	return "WHERE " + strings.Join(conditions, " AND "), args, argIndex
}

// buildOrderClause builds an ORDER BY clause, falling back to the
// default sort when the requested column is not sortable.
func buildOrderClause(filter Filter, allowed map[string]bool, defaultSort string) string {
	column := defaultSort
	if filter.SortBy != "" && allowed[filter.SortBy] {
		column = filter.SortBy
	}

	order := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		order = "ASC"
	}

	return fmt.Sprintf("ORDER BY %s %s", column, order)
}

// buildLimitClause builds LIMIT/OFFSET and appends their args.
func buildLimitClause(filter Filter, argIndex *int, args *[]interface{}) string {
	clause := ""

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	clause = fmt.Sprintf("LIMIT $%d", *argIndex)
	*args = append(*args, limit)
	*argIndex++

	if filter.Offset > 0 {
		clause += fmt.Sprintf(" OFFSET $%d", *argIndex)
		*args = append(*args, filter.Offset)
		*argIndex++
	}

	return clause
}
