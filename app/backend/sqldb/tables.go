package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"teamboard/app/backend"
)

// Tables serves the table contract from SQL tables. Rows are returned as JSON
// objects keyed by column name.
type Tables struct {
	db *DB
}

func NewTables(db *DB) *Tables {
	return &Tables{db: db}
}

func (t *Tables) Select(ctx context.Context, table string, q backend.Query) ([]backend.Row, error) {
	query, args, err := buildSelect(t.db.d, table, q)
	if err != nil {
		return nil, err
	}
	rows, err := queryRows(ctx, t.db, query, args)
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", table, err)
	}
	return rows, nil
}

// Insert writes all rows in a single statement inside a transaction.
func (t *Tables) Insert(ctx context.Context, table string, rows []map[string]any) ([]backend.Row, error) {
	if len(rows) == 0 {
		return []backend.Row{}, nil
	}
	query, args, err := buildInsert(t.db.d, table, rows)
	if err != nil {
		return nil, err
	}
	var out []backend.Row
	err = t.db.Transaction(ctx, func(tx *Tx) error {
		if tx.d.UseReturning() {
			out, err = queryRows(ctx, tx, query, args)
			return err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return translate(err)
		}
		first, err := res.LastInsertId()
		if err != nil {
			return err
		}
		ids := make([]int64, len(rows))
		for i := range ids {
			ids[i] = first + int64(i)
		}
		out, err = selectByIDs(ctx, tx, table, ids)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", table, err)
	}
	return out, nil
}

func (t *Tables) Update(ctx context.Context, table string, patch map[string]any, filters ...backend.Filter) ([]backend.Row, error) {
	return t.update(ctx, table, sortedAssignments(patch), filters)
}

// Increment adds by to column in one UPDATE statement.
func (t *Tables) Increment(ctx context.Context, table, column string, by int64, filters ...backend.Filter) ([]backend.Row, error) {
	return t.update(ctx, table, []assignment{{column: column, value: by, increment: true}}, filters)
}

func (t *Tables) update(ctx context.Context, table string, sets []assignment, filters []backend.Filter) ([]backend.Row, error) {
	query, args, err := buildUpdate(t.db.d, table, sets, filters)
	if err != nil {
		return nil, err
	}
	if t.db.d.UseReturning() {
		out, err := queryRows(ctx, t.db, query, args)
		if err != nil {
			return nil, fmt.Errorf("update %s: %w", table, err)
		}
		return out, nil
	}

	idQuery, idArgs, err := buildSelectIDs(t.db.d, table, filters)
	if err != nil {
		return nil, err
	}
	var out []backend.Row
	err = t.db.Transaction(ctx, func(tx *Tx) error {
		ids, err := queryIDs(ctx, tx, idQuery, idArgs)
		if err != nil || len(ids) == 0 {
			out = []backend.Row{}
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return translate(err)
		}
		out, err = selectByIDs(ctx, tx, table, ids)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", table, err)
	}
	return out, nil
}

func selectByIDs(ctx context.Context, q Querier, table string, ids []int64) ([]backend.Row, error) {
	d := q.Dialect()
	query, args := byIDs(d, "SELECT * FROM "+d.QuoteIdent(table), ids)
	return queryRows(ctx, q, query+" ORDER BY "+d.QuoteIdent("id"), args)
}

func queryIDs(ctx context.Context, q Querier, query string, args []any) ([]int64, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func queryRows(ctx context.Context, q Querier, query string, args []any) ([]backend.Row, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// scanRows converts each result row to a JSON object.
func scanRows(rows *sql.Rows) ([]backend.Row, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	out := make([]backend.Row, 0)
	for rows.Next() {
		vals := make([]any, len(types))
		ptrs := make([]any, len(types))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		obj := make(map[string]any, len(types))
		for i, ct := range types {
			obj[ct.Name()] = jsonValue(ct.DatabaseTypeName(), vals[i])
		}
		data, err := json.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("failed to encode row: %w", err)
		}
		out = append(out, data)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// jsonValue maps a scanned driver value to its JSON form. Drivers that use
// the text protocol return numbers as bytes.
func jsonValue(dbType string, v any) any {
	switch x := v.(type) {
	case []byte:
		if isNumeric(dbType) {
			if _, err := strconv.ParseFloat(string(x), 64); err == nil {
				return json.Number(x)
			}
		}
		return string(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	}
	return v
}

func isNumeric(dbType string) bool {
	switch strings.TrimPrefix(strings.ToUpper(dbType), "UNSIGNED ") {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT",
		"INT2", "INT4", "INT8", "DECIMAL", "NUMERIC", "FLOAT", "FLOAT4", "FLOAT8", "DOUBLE", "REAL":
		return true
	}
	return false
}

// translate turns driver errors into backend errors carrying the server's
// code and message.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &backend.Error{Code: pgErr.Code, Message: pgErr.Message, Details: pgErr.Detail, Hint: pgErr.Hint}
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return &backend.Error{Code: strconv.Itoa(int(myErr.Number)), Message: myErr.Message}
	}
	return err
}

// isUniqueViolation reports whether err is a duplicate key error.
func isUniqueViolation(err error) bool {
	var be *backend.Error
	if errors.As(err, &be) {
		return be.Code == "23505" || be.Code == "1062"
	}
	return false
}
