package inquiries

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// CategoryCount is the number of stored inquiries for one category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// StatsStore runs reporting queries over database/sql.
type StatsStore struct {
	db *sql.DB
}

func NewStatsStore(db *sql.DB) *StatsStore {
	if db == nil {
		panic("inquiries: sql db required")
	}
	return &StatsStore{db: db}
}

// CountByCategory groups stored inquiries by category. A non-empty categories
// slice restricts the result to those labels.
func (s *StatsStore) CountByCategory(ctx context.Context, categories []string) ([]CategoryCount, error) {
	query := `SELECT category, COUNT(*) FROM inquiries GROUP BY category ORDER BY category`
	args := []any{}
	if len(categories) > 0 {
		query = `SELECT category, COUNT(*) FROM inquiries WHERE category = ANY($1) GROUP BY category ORDER BY category`
		args = append(args, pq.Array(categories))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("inquiries: count by category: %w", err)
	}
	defer rows.Close()

	out := []CategoryCount{}
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("inquiries: scan category count: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
