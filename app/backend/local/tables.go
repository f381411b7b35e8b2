package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"

	"teamboard/app/backend"
)

// maxConflictRetries bounds how often a read-modify-write transaction is
// retried after a conflict.
const maxConflictRetries = 10

// Tables stores each row as a JSON document keyed by table and id.
type Tables struct {
	db  *DB
	now func() time.Time
}

// NewTables returns table access over db.
func NewTables(db *DB) *Tables {
	return &Tables{db: db, now: time.Now}
}

type stored struct {
	key []byte
	doc backend.Doc
}

func (t *Tables) Select(ctx context.Context, table string, q backend.Query) ([]backend.Row, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	var docs []backend.Doc
	err := t.db.db.View(func(txn *badger.Txn) error {
		rows, err := scan(ctx, txn, table, q.Filters)
		for _, r := range rows {
			docs = append(docs, r.doc)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	backend.SortDocs(docs, q.Order)
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return encode(docs)
}

// Insert writes every row in one transaction, assigning id and created_at.
func (t *Tables) Insert(ctx context.Context, table string, rows []map[string]any) ([]backend.Row, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	var out []backend.Row
	err := t.db.db.Update(func(txn *badger.Txn) error {
		out = make([]backend.Row, 0, len(rows))
		for _, r := range rows {
			if err := ctx.Err(); err != nil {
				return err
			}
			id, err := getNextID(txn, seqKey(table))
			if err != nil {
				return err
			}
			doc := make(map[string]any, len(r)+2)
			for k, v := range r {
				doc[k] = v
			}
			doc["id"] = id
			if _, ok := doc["created_at"]; !ok {
				doc["created_at"] = t.now().UTC().Format(time.RFC3339Nano)
			}
			data, err := marshalEntity(doc)
			if err != nil {
				return err
			}
			if err := txn.Set(rowKey(table, id), data); err != nil {
				return err
			}
			out = append(out, data)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", table, err)
	}
	return out, nil
}

func (t *Tables) Update(ctx context.Context, table string, patch map[string]any, filters ...backend.Filter) ([]backend.Row, error) {
	return t.modify(ctx, table, filters, func(d backend.Doc) error {
		for k, v := range patch {
			if k == "id" {
				continue
			}
			d[k] = v
		}
		return nil
	})
}

// Increment adds by to column on matching rows inside one transaction,
// retrying when a concurrent writer conflicts.
func (t *Tables) Increment(ctx context.Context, table, column string, by int64, filters ...backend.Filter) ([]backend.Row, error) {
	return t.modify(ctx, table, filters, func(d backend.Doc) error {
		n, err := strconv.ParseInt(fmt.Sprint(d[column]), 10, 64)
		if err != nil {
			return backend.Errorf("22P02", "column %q is not an integer", column)
		}
		d[column] = n + by
		return nil
	})
}

func (t *Tables) modify(ctx context.Context, table string, filters []backend.Filter, apply func(backend.Doc) error) ([]backend.Row, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	var out []backend.Row
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = t.db.db.Update(func(txn *badger.Txn) error {
			rows, err := scan(ctx, txn, table, filters)
			if err != nil {
				return err
			}
			out = make([]backend.Row, 0, len(rows))
			for _, r := range rows {
				if err := apply(r.doc); err != nil {
					return err
				}
				data, err := marshalEntity(r.doc)
				if err != nil {
					return err
				}
				if err := txn.Set(r.key, data); err != nil {
					return err
				}
				out = append(out, data)
			}
			return nil
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", table, err)
	}
	return out, nil
}

func scan(ctx context.Context, txn *badger.Txn, table string, filters []backend.Filter) ([]stored, error) {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	rows := make([]stored, 0)
	prefix := rowPrefix(table)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item := it.Item()
		val, err := item.ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		doc, err := backend.DecodeDoc(val)
		if err != nil {
			return nil, err
		}
		if doc.Matches(filters) {
			rows = append(rows, stored{key: item.KeyCopy(nil), doc: doc})
		}
	}
	return rows, nil
}

func encode(docs []backend.Doc) ([]backend.Row, error) {
	rows := make([]backend.Row, 0, len(docs))
	for _, d := range docs {
		data, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("failed to encode row: %w", err)
		}
		rows = append(rows, data)
	}
	return rows, nil
}
