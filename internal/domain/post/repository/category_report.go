package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// CategoryReporter 分类统计
type CategoryReporter interface {
	CategoryCounts(ctx context.Context) (map[string]int64, error)
}

type categoryCount struct {
	Category string `db:"category"`
	Count    int64  `db:"count"`
}

// sqlxCategoryReporter 走只读的 sqlx 连接，聚合查询不经过 gorm
type sqlxCategoryReporter struct {
	db *sqlx.DB
}

func NewCategoryReporter(db *sqlx.DB) CategoryReporter {
	return &sqlxCategoryReporter{db: db}
}

const categoryCountsQuery = `SELECT category, COUNT(*) AS count FROM posts GROUP BY category`

func (r *sqlxCategoryReporter) CategoryCounts(ctx context.Context) (map[string]int64, error) {
	var rows []categoryCount
	if err := r.db.SelectContext(ctx, &rows, categoryCountsQuery); err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Category] = row.Count
	}
	return counts, nil
}
