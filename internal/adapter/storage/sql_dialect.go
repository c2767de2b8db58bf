package storage

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect selects the SQL flavour spoken by SQLAdapter.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectMySQL
	DialectPostgres
)

func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "mysql":
		return DialectMySQL, nil
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	}
	return 0, fmt.Errorf("unknown sql dialect %q", name)
}

// DriverName is the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	switch d {
	case DialectMySQL:
		return "mysql"
	case DialectPostgres:
		return "pgx"
	default:
		return "sqlite"
	}
}

func (d Dialect) String() string {
	switch d {
	case DialectMySQL:
		return "mysql"
	case DialectPostgres:
		return "postgres"
	default:
		return "sqlite"
	}
}

// rebind rewrites ? placeholders to $n for postgres.
func (d Dialect) rebind(query string) string {
	if d != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) upsertBalance() string {
	if d == DialectMySQL {
		return `INSERT INTO balances (owner, amount) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE amount = amount + VALUES(amount)`
	}
	return `INSERT INTO balances (owner, amount) VALUES (?, ?)
		ON CONFLICT (owner) DO UPDATE SET amount = balances.amount + excluded.amount`
}

func (d Dialect) isDuplicate(err error) bool {
	switch d {
	case DialectMySQL:
		var myErr *mysql.MySQLError
		return errors.As(err, &myErr) && myErr.Number == 1062
	case DialectPostgres:
		var pgErr *pgconn.PgError
		return errors.As(err, &pgErr) && pgErr.Code == "23505"
	default:
		var liteErr *sqlite.Error
		if !errors.As(err, &liteErr) {
			return false
		}
		// extended codes keep the primary code in the low byte
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
}

func (d Dialect) schema() []string {
	timeType := "DATETIME"
	switch d {
	case DialectMySQL:
		timeType = "DATETIME(6)"
	case DialectPostgres:
		timeType = "TIMESTAMPTZ"
	}

	receiptIndex := `CREATE INDEX IF NOT EXISTS idx_receipts_item ON receipts (item_id, created_at)`
	receiptInline := ""
	if d == DialectMySQL {
		receiptIndex = ""
		receiptInline = ",\n    INDEX idx_receipts_item (item_id, created_at)"
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS items (
    address    VARCHAR(64) PRIMARY KEY,
    item_id    BIGINT NOT NULL,
    name       VARCHAR(50) NOT NULL,
    quantity   BIGINT NOT NULL,
    price      BIGINT NOT NULL,
    authority  VARCHAR(64) NOT NULL,
    version    BIGINT NOT NULL DEFAULT 0,
    created_at ` + timeType + ` NOT NULL,
    updated_at ` + timeType + ` NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS balances (
    owner  VARCHAR(64) PRIMARY KEY,
    amount BIGINT NOT NULL DEFAULT 0 CHECK (amount >= 0)
)`,
		`CREATE TABLE IF NOT EXISTS receipts (
    id         VARCHAR(64) PRIMARY KEY,
    request_id VARCHAR(128) NOT NULL DEFAULT '',
    item_id    BIGINT NOT NULL,
    buyer      VARCHAR(64) NOT NULL,
    seller     VARCHAR(64) NOT NULL,
    quantity   BIGINT NOT NULL,
    total      BIGINT NOT NULL,
    remaining  BIGINT NOT NULL,
    created_at ` + timeType + ` NOT NULL` + receiptInline + `
)`,
	}
	if receiptIndex != "" {
		stmts = append(stmts, receiptIndex)
	}
	return stmts
}
