package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"ChairReports/internal/domain"
	"ChairReports/internal/ports"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresOrderSource reads orders written by checkout. Purchaser and lines are JSONB.
type PostgresOrderSource struct {
	db *sql.DB
}

var _ ports.OrderSource = (*PostgresOrderSource)(nil)

// NewPostgresOrderSource wires a sql.DB implementation.
func NewPostgresOrderSource(db *sql.DB) *PostgresOrderSource {
	return &PostgresOrderSource{db: db}
}

// ListOrderIDs returns every order id, oldest first.
func (r *PostgresOrderSource) ListOrderIDs(ctx context.Context) ([]string, error) {
	if r.db == nil {
		return nil, nil
	}

	query, args, err := psql.Select("id").From("orders").OrderBy("created", "id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query order ids: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return ids, nil
}

// GetOrder loads one order, returning nil, nil when it does not exist.
func (r *PostgresOrderSource) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if r.db == nil {
		return nil, nil
	}

	query, args, err := psql.Select("id", "created", "status", "purchaser", "lines").
		From("orders").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build order query: %w", err)
	}

	var (
		order          domain.Order
		status         sql.NullString
		purchaser, raw []byte
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&order.ID, &order.Created, &status, &purchaser, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	order.Status = status.String

	if len(purchaser) > 0 {
		if err := json.Unmarshal(purchaser, &order.Purchaser); err != nil {
			return nil, fmt.Errorf("decode purchaser of %s: %w", id, err)
		}
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &order.Lines); err != nil {
			return nil, fmt.Errorf("decode lines of %s: %w", id, err)
		}
	}

	return &order, nil
}
