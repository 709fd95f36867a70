package database

import (
	"strings"
)

// Driver names a database backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

func (d Driver) String() string { return string(d) }

func (d Driver) IsValid() bool {
	return d == DriverPostgres || d == DriverSQLite
}

var sqliteSuffixes = []string{".db", ".sqlite", ".sqlite3"}

// DetectDriver infers the backend from a connection string. An empty string
// selects SQLite so the CLI works without configuration; anything that is
// not recognisably SQLite is handed to PostgreSQL.
func DetectDriver(url string) Driver {
	switch {
	case url == "":
		return DriverSQLite
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres
	case strings.HasPrefix(url, "sqlite://"), strings.HasPrefix(url, "file:"):
		return DriverSQLite
	}
	for _, suffix := range sqliteSuffixes {
		if strings.HasSuffix(url, suffix) {
			return DriverSQLite
		}
	}
	return DriverPostgres
}
