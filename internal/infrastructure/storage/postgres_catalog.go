package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"ChairReports/internal/domain"
	"ChairReports/internal/ports"
)

// PostgresCatalog reads item configuration from the catalog_items table.
type PostgresCatalog struct {
	db *sql.DB
}

var _ ports.CatalogStore = (*PostgresCatalog)(nil)

// NewPostgresCatalog wires a sql.DB implementation.
func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

// ItemConfigs returns the items of one kind in admin sort order.
func (r *PostgresCatalog) ItemConfigs(ctx context.Context, kind domain.ItemKind) ([]domain.ItemConfig, error) {
	if r.db == nil {
		return nil, nil
	}

	query, args, err := psql.
		Select("id", "name", "kind", "layout", "chair_emails", "publish_start", "publish_end", "report_frequency").
		From("catalog_items").
		Where(sq.Eq{"kind": string(kind)}).
		OrderBy("sort_order", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build catalog query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query catalog %s: %w", kind, err)
	}

	var items []domain.ItemConfig
	for rows.Next() {
		var (
			item       domain.ItemConfig
			kindValue  string
			layout     sql.NullString
			emails     pq.StringArray
			start, end sql.NullTime
			frequency  sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.Name, &kindValue, &layout, &emails, &start, &end, &frequency); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan item: %w", err)
		}
		item.Kind = domain.ItemKind(kindValue)
		item.Layout = layout.String
		item.ChairEmails = []string(emails)
		item.PublishStart = nullTime(start)
		item.PublishEnd = nullTime(end)
		item.ReportFrequency = frequency.String
		items = append(items, item)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return items, nil
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
}
