package postgres

import (
	"fmt"
	"strings"

	"fintrack/internal/core"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// whereClause translates a query's user scope and criteria to SQL with
// numbered placeholders.
func whereClause(q core.TransactionQuery) (string, []any) {
	args := []any{q.UserID()}
	conds := []string{"user_id = $1"}
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, c := range q.Criteria() {
		switch c := c.(type) {
		case core.TextSearch:
			conds = append(conds, "title ILIKE "+next("%"+likeEscaper.Replace(c.Text)+"%")+` ESCAPE '\'`)
		case core.DateRange:
			if !c.From.IsZero() {
				conds = append(conds, "date >= "+next(c.From))
			}
			if !c.To.IsZero() {
				conds = append(conds, "date <= "+next(c.To))
			}
		case core.TypeIs:
			conds = append(conds, "type = "+next(string(c.Type)))
		case core.CategoryIs:
			conds = append(conds, "category = "+next(c.Category))
		default:
			panic(fmt.Sprintf("postgres: unsupported criterion %T", c))
		}
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

func orderClause(order core.SortOrder) string {
	switch order {
	case core.OldestFirst:
		return "ORDER BY date ASC, id ASC"
	case core.AmountHighToLow:
		return "ORDER BY amount_cents DESC, id ASC"
	case core.AmountLowToHigh:
		return "ORDER BY amount_cents ASC, id ASC"
	default:
		return "ORDER BY date DESC, id ASC"
	}
}

func pageClause(skip, limit int) string {
	var parts []string
	if limit > 0 {
		parts = append(parts, fmt.Sprintf("LIMIT %d", limit))
	}
	if skip > 0 {
		parts = append(parts, fmt.Sprintf("OFFSET %d", skip))
	}
	return strings.Join(parts, " ")
}
