package postgres

import (
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestWhereClause(t *testing.T) {
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 31, 23, 59, 59, 999e6, time.UTC)

	tests := []struct {
		name     string
		query    core.TransactionQuery
		wantSQL  string
		wantArgs int
	}{
		{
			name:     "scope only",
			query:    core.NewQuery("u1"),
			wantSQL:  "WHERE user_id = $1",
			wantArgs: 1,
		},
		{
			name:     "category month",
			query:    core.NewQuery("u1").Between(from, to).OfType(core.Expense).InCategory("Food"),
			wantSQL:  "WHERE user_id = $1 AND date >= $2 AND date <= $3 AND type = $4 AND category = $5",
			wantArgs: 5,
		},
		{
			name:     "search",
			query:    core.NewQuery("u1").Search("50%"),
			wantSQL:  `WHERE user_id = $1 AND title ILIKE $2 ESCAPE '\'`,
			wantArgs: 2,
		},
		{
			name:     "open range",
			query:    core.NewQuery("u1").Since(from),
			wantSQL:  "WHERE user_id = $1 AND date >= $2",
			wantArgs: 2,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sql, args := whereClause(tc.query)
			if sql != tc.wantSQL {
				t.Errorf("sql = %q\nwant  %q", sql, tc.wantSQL)
			}
			if len(args) != tc.wantArgs {
				t.Errorf("args = %v", args)
			}
		})
	}

	_, args := whereClause(core.NewQuery("u1").Search("50%"))
	if args[1] != `%50\%%` {
		t.Errorf("search pattern = %q", args[1])
	}
}

func TestPageClause(t *testing.T) {
	tests := []struct {
		skip, limit int
		want        string
	}{
		{0, 0, ""},
		{0, 15, "LIMIT 15"},
		{30, 15, "LIMIT 15 OFFSET 30"},
		{5, 0, "OFFSET 5"},
	}
	for _, tc := range tests {
		if got := pageClause(tc.skip, tc.limit); got != tc.want {
			t.Errorf("pageClause(%d, %d) = %q, want %q", tc.skip, tc.limit, got, tc.want)
		}
	}
}
