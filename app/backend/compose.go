package backend

import (
	"context"
	"errors"
	"io"
)

type composite struct {
	Tables
	Auth
	closers []io.Closer
}

// Compose joins a table backend and an auth backend into one Client. Close
// closes the given closers in reverse order.
func Compose(t Tables, a Auth, closers ...io.Closer) Client {
	return &composite{Tables: t, Auth: a, closers: closers}
}

func (c *composite) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Increment forwards to the table backend when it supports atomic increments.
func (c *composite) Increment(ctx context.Context, table, column string, by int64, filters ...Filter) ([]Row, error) {
	inc, ok := c.Tables.(Incrementer)
	if !ok {
		return nil, errors.ErrUnsupported
	}
	return inc.Increment(ctx, table, column, by, filters...)
}

// CanIncrement reports whether c can increment atomically.
func CanIncrement(c Tables) bool {
	if comp, ok := c.(*composite); ok {
		_, ok = comp.Tables.(Incrementer)
		return ok
	}
	_, ok := c.(Incrementer)
	return ok
}
