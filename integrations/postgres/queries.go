package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/h2316307-design/adhub-pro-sub009/statement"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// filter accumulates WHERE conditions with positional arguments.
type filter struct {
	conditions []string
	args       []interface{}
}

// add appends a condition whose single %d verb becomes the next $n placeholder.
func (f *filter) add(format string, value interface{}) {
	f.args = append(f.args, value)
	f.conditions = append(f.conditions, fmt.Sprintf(format, len(f.args)))
}

func (f *filter) static(condition string) {
	f.conditions = append(f.conditions, condition)
}

func (f *filter) where() string {
	if len(f.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(f.conditions, " AND ")
}

// collection describes how one record kind is selected for a customer.
type collection struct {
	name   string
	query  string // SELECT ... FROM ... without WHERE
	byID   string // condition on the customer id, one %d verb
	byName string // fuzzy condition on the customer name, one %d verb
	// static conditions that always apply
	static  []string
	dateCol string // range-filtered column, if any
	orderBy string
}

func (c collection) build(q statement.Query, byName bool) (string, []interface{}) {
	f := &filter{}
	if byName {
		f.add(c.byName, q.CustomerName)
	} else {
		f.add(c.byID, q.CustomerID)
	}
	for _, s := range c.static {
		f.static(s)
	}
	if c.dateCol != "" {
		if q.Range.From != nil {
			f.add(c.dateCol+" >= $%d", *q.Range.From)
		}
		if upper := q.Range.Upper(); upper != nil {
			f.add(c.dateCol+" < $%d", *upper)
		}
	}

	sql := c.query + "\n" + f.where()
	if c.orderBy != "" {
		sql += "\nORDER BY " + c.orderBy
	}
	return sql, f.args
}

// fetch runs the id lookup first and only falls back to the name match when
// it returns no rows.
func fetch[T any](ctx context.Context, db *DB, c collection, q statement.Query, scan pgx.RowToFunc[T]) ([]T, error) {
	if q.CustomerID != "" {
		items, err := run(ctx, db, c, q, false, scan)
		if err != nil || len(items) > 0 {
			return items, err
		}
	}
	if strings.TrimSpace(q.CustomerName) == "" {
		return nil, nil
	}
	return run(ctx, db, c, q, true, scan)
}

func run[T any](ctx context.Context, db *DB, c collection, q statement.Query, byName bool, scan pgx.RowToFunc[T]) ([]T, error) {
	sql, args := c.build(q, byName)
	rows, err := db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c.name, err)
	}
	items, err := pgx.CollectRows(rows, scan)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", c.name, err)
	}

	db.logger.Debug("fetched collection",
		zap.String("collection", c.name),
		zap.Bool("by_name", byName),
		zap.Int("rows", len(items)))
	return items, nil
}
