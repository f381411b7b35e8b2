package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Doc is a decoded row used by document-style backends to filter and sort.
type Doc map[string]any

// DecodeDoc decodes a JSON row keeping numbers exact.
func DecodeDoc(data []byte) (Doc, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var d Doc
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to decode row: %w", err)
	}
	return d, nil
}

// Matches reports whether d satisfies every filter.
func (d Doc) Matches(filters []Filter) bool {
	for _, f := range filters {
		v, ok := d[f.Column]
		if !ok || compare(v, f.Value) != 0 {
			return false
		}
	}
	return true
}

// SortDocs orders docs by the given columns. Ties keep their input order.
func SortDocs(docs []Doc, order []Order) {
	if len(order) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, o := range order {
			c := compare(docs[i][o.Column], docs[j][o.Column])
			if c == 0 {
				continue
			}
			if o.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

// compare orders two JSON scalars. Numbers compare numerically, RFC 3339
// strings compare as instants, other strings lexically. nil sorts first.
func compare(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	sa, sb := toString(a), toString(b)
	if ta, err := time.Parse(time.RFC3339Nano, sa); err == nil {
		if tb, err := time.Parse(time.RFC3339Nano, sb); err == nil {
			return ta.Compare(tb)
		}
	}
	return strings.Compare(sa, sb)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case time.Time:
		return s.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return s.String()
	}
	return fmt.Sprint(v)
}
