package db

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	mssql "github.com/microsoft/go-mssqldb"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/retail-sdw/sdwload/pkg/sdwload"
)

// DialectFor returns the dialect of a supported driver.
func DialectFor(d sdwload.Driver) (sdwload.Dialect, error) {
	switch d {
	case sdwload.DriverPostgres:
		return postgresDialect{}, nil
	case sdwload.DriverMySQL:
		return mysqlDialect{}, nil
	case sdwload.DriverSQLite:
		return sqliteDialect{}, nil
	case sdwload.DriverSQLServer:
		return sqlserverDialect{}, nil
	default:
		return nil, fmt.Errorf("%q: %w", d, sdwload.ErrUnsupportedDriver)
	}
}

// InsertStatement renders a single-row parameterized INSERT for dialect.
func InsertStatement(d sdwload.Dialect, table string, columns []string) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.QuoteIdent(table))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.QuoteIdent(c))
	}
	b.WriteString(") VALUES (")
	for i := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.Placeholder(i + 1))
	}
	b.WriteString(")")
	return b.String()
}

// quoteParts quotes each dot-separated part of name with open/close,
// doubling any embedded close character.
func quoteParts(name string, open, close string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = open + strings.ReplaceAll(p, close, close+close) + close
	}
	return strings.Join(parts, ".")
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return string(sdwload.DriverPostgres) }

func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (postgresDialect) QuoteIdent(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

func (postgresDialect) Violation(err error) (sdwload.Violation, string) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return sdwload.NoViolation, ""
	}
	switch {
	case pgErr.Code == "23505": // unique_violation
		return sdwload.UniqueViolation, pgErr.ConstraintName
	case strings.HasPrefix(pgErr.Code, "23"): // integrity_constraint_violation class
		return sdwload.OtherViolation, pgErr.ConstraintName
	default:
		return sdwload.NoViolation, ""
	}
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return string(sdwload.DriverMySQL) }

func (mysqlDialect) Placeholder(int) string { return "?" }

func (mysqlDialect) QuoteIdent(name string) string { return quoteParts(name, "`", "`") }

// MySQL server error numbers.
const (
	mysqlErrDupEntry        = 1062
	mysqlErrBadNull         = 1048
	mysqlErrRowIsReferenced = 1451
	mysqlErrNoReferencedRow = 1452
	mysqlErrCheckConstraint = 3819
	mysqlErrDupEntryWithKey = 1586
	mysqlErrNoRefRowLegacy  = 1216
)

func (mysqlDialect) Violation(err error) (sdwload.Violation, string) {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return sdwload.NoViolation, ""
	}
	switch myErr.Number {
	case mysqlErrDupEntry, mysqlErrDupEntryWithKey:
		return sdwload.UniqueViolation, mysqlKeyName(myErr.Message)
	case mysqlErrBadNull, mysqlErrRowIsReferenced, mysqlErrNoReferencedRow,
		mysqlErrNoRefRowLegacy, mysqlErrCheckConstraint:
		return sdwload.OtherViolation, ""
	default:
		return sdwload.NoViolation, ""
	}
}

// mysqlKeyName extracts 'PRIMARY' from "Duplicate entry '1' for key 'PRIMARY'".
func mysqlKeyName(msg string) string {
	const marker = "for key '"
	i := strings.LastIndex(msg, marker)
	if i < 0 {
		return ""
	}
	rest := msg[i+len(marker):]
	return strings.TrimSuffix(rest, "'")
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return string(sdwload.DriverSQLite) }

func (sqliteDialect) Placeholder(int) string { return "?" }

func (sqliteDialect) QuoteIdent(name string) string { return quoteParts(name, `"`, `"`) }

func (sqliteDialect) Violation(err error) (sdwload.Violation, string) {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return sdwload.NoViolation, ""
	}
	code := liteErr.Code()
	switch {
	case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return sdwload.UniqueViolation, sqliteConstraintTarget(liteErr.Error())
	case code&0xff == sqlite3.SQLITE_CONSTRAINT:
		return sdwload.OtherViolation, sqliteConstraintTarget(liteErr.Error())
	default:
		return sdwload.NoViolation, ""
	}
}

// sqliteConstraintTarget extracts "dim_customer.customer_id" from
// "UNIQUE constraint failed: dim_customer.customer_id (2067)".
func sqliteConstraintTarget(msg string) string {
	const marker = "constraint failed: "
	i := strings.LastIndex(msg, marker)
	if i < 0 {
		return ""
	}
	rest := msg[i+len(marker):]
	if j := strings.Index(rest, " ("); j >= 0 {
		rest = rest[:j]
	}
	return rest
}

type sqlserverDialect struct{}

func (sqlserverDialect) Name() string { return string(sdwload.DriverSQLServer) }

func (sqlserverDialect) Placeholder(n int) string { return "@p" + strconv.Itoa(n) }

func (sqlserverDialect) QuoteIdent(name string) string { return quoteParts(name, "[", "]") }

// SQL Server error numbers.
const (
	mssqlErrUniqueConstraint = 2627
	mssqlErrUniqueIndex      = 2601
	mssqlErrConstraint       = 547
	mssqlErrNullInsert       = 515
)

func (sqlserverDialect) Violation(err error) (sdwload.Violation, string) {
	var msErr mssql.Error
	if !errors.As(err, &msErr) {
		return sdwload.NoViolation, ""
	}
	switch msErr.Number {
	case mssqlErrUniqueConstraint, mssqlErrUniqueIndex:
		return sdwload.UniqueViolation, ""
	case mssqlErrConstraint, mssqlErrNullInsert:
		return sdwload.OtherViolation, ""
	default:
		return sdwload.NoViolation, ""
	}
}
