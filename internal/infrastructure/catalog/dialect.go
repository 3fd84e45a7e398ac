package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Supported drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// dialect isolates the SQL differences between the supported catalog backends
type dialect interface {
	driver() string
	placeholder(n int) string
	// keywordOverlap returns a predicate true when column shares a token with tokens
	keywordOverlap(column string, q *query, tokens []string) string
	keywordColumn() keywordScanner
	schema() string
}

// keywordScanner scans a keyword array column into a string slice
type keywordScanner interface {
	sql.Scanner
	Keywords() []string
}

func dialectFor(driver string) (dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverPostgres, "postgresql":
		return postgresDialect{}, nil
	case DriverSQLite, "sqlite3":
		return sqliteDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported catalog driver %q", driver)
	}
}

// postgresDialect stores keywords as text[] and uses the && overlap operator
type postgresDialect struct{}

func (postgresDialect) driver() string { return DriverPostgres }

func (postgresDialect) placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (postgresDialect) keywordOverlap(column string, q *query, tokens []string) string {
	return fmt.Sprintf("%s && CAST(%s AS text[])", column, q.arg(pq.Array(tokens)))
}

func (postgresDialect) keywordColumn() keywordScanner { return &pgKeywords{} }

func (postgresDialect) schema() string { return postgresSchema }

type pgKeywords struct {
	arr pq.StringArray
}

func (k *pgKeywords) Scan(src interface{}) error { return k.arr.Scan(src) }

func (k *pgKeywords) Keywords() []string { return []string(k.arr) }

// sqliteDialect stores keywords as JSON arrays and matches them with json_each
type sqliteDialect struct{}

func (sqliteDialect) driver() string { return DriverSQLite }

func (sqliteDialect) placeholder(int) string { return "?" }

func (sqliteDialect) keywordOverlap(column string, q *query, tokens []string) string {
	marks := make([]string, len(tokens))
	for i, tok := range tokens {
		marks[i] = q.arg(tok)
	}
	return fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s) AS kw WHERE kw.value IN (%s))",
		column, strings.Join(marks, ", "))
}

func (sqliteDialect) keywordColumn() keywordScanner { return &jsonKeywords{} }

func (sqliteDialect) schema() string { return sqliteSchema }

type jsonKeywords struct {
	vals []string
}

func (k *jsonKeywords) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		k.vals = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("scan keywords: unsupported type %T", src)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		k.vals = nil
		return nil
	}
	return json.Unmarshal(raw, &k.vals)
}

func (k *jsonKeywords) Keywords() []string { return k.vals }

// query accumulates positional arguments and renders dialect placeholders
type query struct {
	d    dialect
	args []interface{}
}

func (q *query) arg(v interface{}) string {
	q.args = append(q.args, v)
	return q.d.placeholder(len(q.args))
}

// likeEscaper escapes LIKE wildcards in user-provided text
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func prefixPattern(s string) string {
	return likeEscaper.Replace(s) + "%"
}
