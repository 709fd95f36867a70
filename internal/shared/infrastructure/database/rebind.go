package database

import "strings"

// Rebind rewrites the numbered $N placeholders used throughout the repositories
// into the form the driver understands. SQLite reads ?N as the same numbered
// parameter, so a query may reference one argument several times on both drivers.
func Rebind(driver Driver, query string) string {
	if driver != DriverSQLite {
		return query
	}
	return strings.ReplaceAll(query, "$", "?")
}
