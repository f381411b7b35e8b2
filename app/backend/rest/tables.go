package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"teamboard/app/backend"
)

// TokenSource supplies the signed-in user's access token, or "" when
// signed out.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Tables reads and writes tables through the REST table API.
type Tables struct {
	conn   *Conn
	tokens TokenSource
}

// NewTables returns table access that authenticates as the current user of
// tokens. A nil tokens always uses the public key.
func NewTables(conn *Conn, tokens TokenSource) *Tables {
	return &Tables{conn: conn, tokens: tokens}
}

func (t *Tables) bearer(ctx context.Context) (string, error) {
	if t.tokens == nil {
		return "", nil
	}
	return t.tokens.AccessToken(ctx)
}

func (t *Tables) Select(ctx context.Context, table string, q backend.Query) ([]backend.Row, error) {
	v := filterValues(q.Filters)
	v.Set("select", "*")
	if len(q.Order) > 0 {
		parts := make([]string, len(q.Order))
		for i, o := range q.Order {
			dir := "desc"
			if o.Ascending {
				dir = "asc"
			}
			parts[i] = o.Column + "." + dir
		}
		v.Set("order", strings.Join(parts, ","))
	}
	if q.Limit > 0 {
		v.Set("limit", fmt.Sprint(q.Limit))
	}
	return t.send(ctx, request{method: http.MethodGet, path: tablePath(table), query: v})
}

func (t *Tables) Insert(ctx context.Context, table string, rows []map[string]any) ([]backend.Row, error) {
	if len(rows) == 0 {
		return []backend.Row{}, nil
	}
	return t.send(ctx, request{
		method: http.MethodPost,
		path:   tablePath(table),
		query:  url.Values{"select": {"*"}},
		body:   rows,
		prefer: "return=representation",
	})
}

func (t *Tables) Update(ctx context.Context, table string, patch map[string]any, filters ...backend.Filter) ([]backend.Row, error) {
	v := filterValues(filters)
	v.Set("select", "*")
	return t.send(ctx, request{
		method: http.MethodPatch,
		path:   tablePath(table),
		query:  v,
		body:   patch,
		prefer: "return=representation",
	})
}

func (t *Tables) send(ctx context.Context, r request) ([]backend.Row, error) {
	bearer, err := t.bearer(ctx)
	if err != nil {
		return nil, err
	}
	r.bearer = bearer
	data, err := t.conn.do(ctx, r)
	if err != nil {
		return nil, err
	}
	rows := make([]backend.Row, 0)
	if len(data) == 0 {
		return rows, nil
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return rows, nil
}

func tablePath(table string) string {
	return "/rest/v1/" + url.PathEscape(table)
}

func filterValues(filters []backend.Filter) url.Values {
	v := url.Values{}
	for _, f := range filters {
		v.Add(f.Column, "eq."+fmt.Sprint(f.Value))
	}
	return v
}
