package sqlite

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"modernc.org/sqlite"

	"fintrack/internal/core"
)

// foldFunc lowercases with Go's Unicode rules. SQLite's LOWER only folds ASCII.
const foldFunc = "fold_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1, foldLower)
}

func foldLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return nil, fmt.Errorf("%s: unsupported argument %T", foldFunc, v)
	}
}

// likeEscaper escapes LIKE wildcards so search text matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// whereClause translates a query's user scope and criteria to SQL.
func whereClause(q core.TransactionQuery) (string, []any) {
	conds := []string{"user_id = ?"}
	args := []any{q.UserID()}

	for _, c := range q.Criteria() {
		switch c := c.(type) {
		case core.TextSearch:
			conds = append(conds, foldFunc+`(title) LIKE ? ESCAPE '\'`)
			args = append(args, "%"+likeEscaper.Replace(strings.ToLower(c.Text))+"%")
		case core.DateRange:
			if !c.From.IsZero() {
				conds = append(conds, "date >= ?")
				args = append(args, c.From.UnixMilli())
			}
			if !c.To.IsZero() {
				conds = append(conds, "date <= ?")
				args = append(args, c.To.UnixMilli())
			}
		case core.TypeIs:
			conds = append(conds, "type = ?")
			args = append(args, string(c.Type))
		case core.CategoryIs:
			conds = append(conds, "category = ?")
			args = append(args, c.Category)
		default:
			panic(fmt.Sprintf("sqlite: unsupported criterion %T", c))
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

// pageClause renders LIMIT/OFFSET. SQLite needs a LIMIT before OFFSET, -1 means none.
func pageClause(skip, limit int) string {
	if limit <= 0 && skip <= 0 {
		return ""
	}
	if limit <= 0 {
		limit = -1
	}
	return fmt.Sprintf("LIMIT %d OFFSET %d", limit, skip)
}
