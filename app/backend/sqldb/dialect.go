package sqldb

import "fmt"

// Dialect abstracts SQL differences between database engines.
type Dialect interface {
	Name() string
	// Placeholder returns the bind parameter for the 1-based index.
	Placeholder(index int) string
	QuoteIdent(name string) string
	// UseReturning reports whether INSERT and UPDATE can return the
	// affected rows directly.
	UseReturning() bool
}

var (
	MySQL      Dialect = mysqlDialect{}
	PostgreSQL Dialect = postgresDialect{}
)

type mysqlDialect struct{}

func (mysqlDialect) Name() string                  { return "mysql" }
func (mysqlDialect) Placeholder(_ int) string      { return "?" }
func (mysqlDialect) QuoteIdent(name string) string { return "`" + name + "`" }
func (mysqlDialect) UseReturning() bool            { return false }

type postgresDialect struct{}

func (postgresDialect) Name() string                  { return "postgres" }
func (postgresDialect) Placeholder(index int) string  { return fmt.Sprintf("$%d", index) }
func (postgresDialect) QuoteIdent(name string) string { return `"` + name + `"` }
func (postgresDialect) UseReturning() bool            { return true }
