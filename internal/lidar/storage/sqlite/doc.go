// Package sqlite persists registration runs in a SQLite database.
//
// The schema is owned by the embedded migrations under migrations/ and is
// brought up to date by Open. All reads and writes for run records belong
// here so the solver and the command line stay free of SQL.
package sqlite
