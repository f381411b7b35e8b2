package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"

	"teamboard/app/backend"
)

// ErrNotFound is returned when a row looked up by id does not exist.
var ErrNotFound = backend.ErrNotFound

// TableNamer is implemented by models that override their table name.
type TableNamer interface {
	TableName() string
}

// TableName returns the table for T: its TableName method when it has one,
// otherwise the plural snake_case form of the type name.
func TableName[T any]() string {
	var zero T
	if tn, ok := any(zero).(TableNamer); ok {
		return tn.TableName()
	}
	if tn, ok := any(&zero).(TableNamer); ok {
		return tn.TableName()
	}
	return inflection.Plural(snakeCase(reflect.TypeOf(zero).Name()))
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Table is typed access to one backend table.
type Table[T any] struct {
	tables backend.Tables
	name   string
}

// NewTable binds T to its table in t.
func NewTable[T any](t backend.Tables) *Table[T] {
	return &Table[T]{tables: t, name: TableName[T]()}
}

func (t *Table[T]) Name() string { return t.name }

func (t *Table[T]) Select(ctx context.Context, q backend.Query) ([]T, error) {
	rows, err := t.tables.Select(ctx, t.name, q)
	if err != nil {
		return nil, err
	}
	return decodeRows[T](rows)
}

// First returns the only row matching filters, or ErrNotFound.
func (t *Table[T]) First(ctx context.Context, filters ...backend.Filter) (*T, error) {
	items, err := t.Select(ctx, backend.Query{Filters: filters, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return &items[0], nil
}

func (t *Table[T]) Insert(ctx context.Context, rows []map[string]any) ([]T, error) {
	out, err := t.tables.Insert(ctx, t.name, rows)
	if err != nil {
		return nil, err
	}
	return decodeRows[T](out)
}

func (t *Table[T]) Update(ctx context.Context, patch map[string]any, filters ...backend.Filter) ([]T, error) {
	out, err := t.tables.Update(ctx, t.name, patch, filters...)
	if err != nil {
		return nil, err
	}
	return decodeRows[T](out)
}

// Increment returns errors.ErrUnsupported when the backend has no atomic
// increment.
func (t *Table[T]) Increment(ctx context.Context, column string, by int64, filters ...backend.Filter) ([]T, error) {
	inc, ok := t.tables.(backend.Incrementer)
	if !ok || !backend.CanIncrement(t.tables) {
		return nil, errors.ErrUnsupported
	}
	out, err := inc.Increment(ctx, t.name, column, by, filters...)
	if err != nil {
		return nil, err
	}
	return decodeRows[T](out)
}

func decodeRows[T any](rows []backend.Row) ([]T, error) {
	items := make([]T, 0, len(rows))
	for _, r := range rows {
		var item T
		if err := json.Unmarshal(r, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal row: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

// single picks the one row a write by id returned.
func single[T any](items []T, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return &items[0], nil
}
