package database

import (
	"database/sql"
	"regexp"
	"strconv"
)

// Dialect defines the interface for database-specific operations
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts placeholder syntax if needed (e.g., ? to $1 for postgres)
	RewriteQuery(query string) string

	// SupportsLastInsertId returns true if the driver supports LastInsertId()
	SupportsLastInsertId() bool

	// ConfigureConnection applies any database-specific connection settings
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir returns the subdirectory name for migrations (e.g., "sqlite", "postgres")
	MigrationsSubdir() string

	// CreateMigrationsTableQuery returns the SQL to create the migrations tracking table
	CreateMigrationsTableQuery() string

	// BoolValue returns the SQL representation of a boolean value
	BoolValue(b bool) string

	// Upsert returns an INSERT that updates columns in place when the
	// conflict columns already exist
	Upsert(table string, conflict, columns []string) string
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

// placeholderRegexp matches ? placeholders
var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}

// insertPrefix builds "INSERT INTO t (a, b) VALUES (?, ?)"
func insertPrefix(table string, columns []string, quote func(string) string) string {
	query := "INSERT INTO " + table + " ("
	values := ""
	for i, c := range columns {
		if i > 0 {
			query += ", "
			values += ", "
		}
		query += quote(c)
		values += "?"
	}
	return query + ") VALUES (" + values + ")"
}

// upsertExcluded is the ON CONFLICT form shared by SQLite and PostgreSQL
func upsertExcluded(table string, conflict, columns []string) string {
	plain := func(s string) string { return s }
	query := insertPrefix(table, columns, plain) + " ON CONFLICT ("
	for i, c := range conflict {
		if i > 0 {
			query += ", "
		}
		query += c
	}
	query += ") DO UPDATE SET "

	first := true
	for _, c := range columns {
		if contains(conflict, c) {
			continue
		}
		if !first {
			query += ", "
		}
		query += c + " = excluded." + c
		first = false
	}
	return query
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
