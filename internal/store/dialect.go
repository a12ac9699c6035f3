package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Dialect covers the SQL differences between the supported backends.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// Driver picks the database/sql driver and dialect for a DSN.
func Driver(dsn string) (string, Dialect) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "pgx", Postgres
	case strings.HasPrefix(dsn, "libsql://"), strings.HasPrefix(dsn, "wss://"):
		return "libsql", SQLite
	default:
		return "sqlite3", SQLite
	}
}

// rebind turns ? placeholders into $n for Postgres.
func (d Dialect) rebind(q string) string {
	if d != Postgres {
		return q
	}
	var sb strings.Builder
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteByte(q[i])
	}
	return sb.String()
}

// timeLayout is fixed width so SQLite text comparisons order correctly.
const timeLayout = "2006-01-02T15:04:05.000000Z"

func (d Dialect) timeArg(t time.Time) any {
	if d == Postgres {
		return t.UTC()
	}
	return t.UTC().Format(timeLayout)
}

// dbTime scans timestamps stored either natively or as text.
type dbTime struct {
	time.Time
}

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (t *dbTime) parse(s string) error {
	formats := []string{
		timeLayout,
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if parsed, err := time.Parse(f, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("cannot parse timestamp: %s", s)
}

// nullArg writes a nil pointer as SQL NULL.
func nullArg(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

// schemaErr tags undefined-table failures with ErrSchemaMissing.
func schemaErr(err error) error {
	if err == nil {
		return nil
	}
	if undefinedTable(err) {
		return fmt.Errorf("%w: %w", ErrSchemaMissing, err)
	}
	return err
}

func undefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42P01"
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such table")
}
