package sqldb

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"teamboard/app/backend"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func checkIdent(kind, name string) error {
	if !identRe.MatchString(name) {
		code := "42703"
		if kind == "table" {
			code = "42P01"
		}
		return backend.Errorf(code, "invalid %s name %q", kind, name)
	}
	return nil
}

// assignment is one SET item. With increment the value is added to the
// column instead of replacing it.
type assignment struct {
	column    string
	value     any
	increment bool
}

// rebind converts ? placeholders to the dialect's form.
func rebind(d Dialect, query string) string {
	if d.Placeholder(1) == "?" {
		return query
	}
	var b strings.Builder
	b.Grow(len(query))
	idx := 1
	for i := range len(query) {
		if query[i] == '?' {
			b.WriteString(d.Placeholder(idx))
			idx++
		} else {
			b.WriteByte(query[i])
		}
	}
	return b.String()
}

func appendWhere(d Dialect, b *strings.Builder, filters []backend.Filter) ([]any, error) {
	if len(filters) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(filters))
	b.WriteString(" WHERE ")
	for i, f := range filters {
		if err := checkIdent("column", f.Column); err != nil {
			return nil, err
		}
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString(d.QuoteIdent(f.Column))
		b.WriteString(" = ?")
		args = append(args, f.Value)
	}
	return args, nil
}

func buildSelect(d Dialect, table string, q backend.Query) (string, []any, error) {
	if err := checkIdent("table", table); err != nil {
		return "", nil, err
	}
	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(d.QuoteIdent(table))
	args, err := appendWhere(d, &b, q.Filters)
	if err != nil {
		return "", nil, err
	}
	if len(q.Order) > 0 {
		b.WriteString(" ORDER BY ")
		for i, o := range q.Order {
			if err := checkIdent("column", o.Column); err != nil {
				return "", nil, err
			}
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.QuoteIdent(o.Column))
			if o.Ascending {
				b.WriteString(" ASC")
			} else {
				b.WriteString(" DESC")
			}
		}
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}
	return rebind(d, b.String()), args, nil
}

// buildInsert writes all rows in one statement. A column missing from a row
// takes its default.
func buildInsert(d Dialect, table string, rows []map[string]any) (string, []any, error) {
	if err := checkIdent("table", table); err != nil {
		return "", nil, err
	}
	seen := make(map[string]bool)
	var columns []string
	for _, r := range rows {
		for col := range r {
			if seen[col] {
				continue
			}
			if err := checkIdent("column", col); err != nil {
				return "", nil, err
			}
			seen[col] = true
			columns = append(columns, col)
		}
	}
	sort.Strings(columns)
	if len(columns) == 0 {
		return "", nil, backend.Errorf("42601", "insert into %s has no columns", table)
	}

	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = d.QuoteIdent(col)
	}
	var args []any
	values := make([]string, len(rows))
	for i, r := range rows {
		ph := make([]string, len(columns))
		for j, col := range columns {
			v, ok := r[col]
			if !ok {
				ph[j] = "DEFAULT"
				continue
			}
			ph[j] = "?"
			args = append(args, v)
		}
		values[i] = "(" + strings.Join(ph, ", ") + ")"
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		d.QuoteIdent(table), strings.Join(quoted, ", "), strings.Join(values, ", "))
	if d.UseReturning() {
		query += " RETURNING *"
	}
	return rebind(d, query), args, nil
}

func buildUpdate(d Dialect, table string, sets []assignment, filters []backend.Filter) (string, []any, error) {
	if err := checkIdent("table", table); err != nil {
		return "", nil, err
	}
	if len(sets) == 0 {
		return "", nil, backend.Errorf("42601", "update of %s sets no columns", table)
	}
	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(d.QuoteIdent(table))
	b.WriteString(" SET ")
	args := make([]any, 0, len(sets)+len(filters))
	for i, s := range sets {
		if err := checkIdent("column", s.column); err != nil {
			return "", nil, err
		}
		if i > 0 {
			b.WriteString(", ")
		}
		col := d.QuoteIdent(s.column)
		if s.increment {
			fmt.Fprintf(&b, "%s = %s + ?", col, col)
		} else {
			fmt.Fprintf(&b, "%s = ?", col)
		}
		args = append(args, s.value)
	}
	where, err := appendWhere(d, &b, filters)
	if err != nil {
		return "", nil, err
	}
	args = append(args, where...)
	if d.UseReturning() {
		b.WriteString(" RETURNING *")
	}
	return rebind(d, b.String()), args, nil
}

// buildSelectIDs selects the ids of matching rows, locking them for the
// rest of the transaction.
func buildSelectIDs(d Dialect, table string, filters []backend.Filter) (string, []any, error) {
	if err := checkIdent("table", table); err != nil {
		return "", nil, err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", d.QuoteIdent("id"), d.QuoteIdent(table))
	args, err := appendWhere(d, &b, filters)
	if err != nil {
		return "", nil, err
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(d.QuoteIdent("id"))
	b.WriteString(" FOR UPDATE")
	return rebind(d, b.String()), args, nil
}

// byIDs restricts a statement to the given ids.
func byIDs(d Dialect, prefix string, ids []int64) (string, []any) {
	ph := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		ph[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf("%s WHERE %s IN (%s)", prefix, d.QuoteIdent("id"), strings.Join(ph, ", "))
	return rebind(d, query), args
}

func sortedAssignments(patch map[string]any) []assignment {
	sets := make([]assignment, 0, len(patch))
	for col, v := range patch {
		if col == "id" {
			continue
		}
		sets = append(sets, assignment{column: col, value: v})
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].column < sets[j].column })
	return sets
}
