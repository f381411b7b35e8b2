package local

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"teamboard/app/backend"
)

const (
	tablePrefix = "t:"
	seqPrefix   = "seq:"
)

// getNextID advances the sequence stored at seqKey and returns the new value.
func getNextID(txn *badger.Txn, seqKey []byte) (uint64, error) {
	var id uint64
	item, err := txn.Get(seqKey)
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
	case err != nil:
		return 0, err
	default:
		err = item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("corrupt sequence %q", seqKey)
			}
			id = binary.BigEndian.Uint64(val)
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	id++
	if err := txn.Set(seqKey, binary.BigEndian.AppendUint64(nil, id)); err != nil {
		return 0, err
	}
	return id, nil
}

func checkTable(table string) error {
	if table == "" || strings.ContainsAny(table, ": ") {
		return backend.Errorf("42P01", "invalid table name %q", table)
	}
	return nil
}

func rowPrefix(table string) []byte {
	return []byte(tablePrefix + table + ":")
}

// rowKey sorts rows of a table by id.
func rowKey(table string, id uint64) []byte {
	return binary.BigEndian.AppendUint64(rowPrefix(table), id)
}

func seqKey(table string) []byte {
	return []byte(seqPrefix + table)
}

func marshalEntity(entity any) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	return data, nil
}

func unmarshalEntity(data []byte, entity any) error {
	if err := json.Unmarshal(data, entity); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return nil
}
