// Package db persists the catalog's cars in SQLite.
//
// Open uses the pure-Go modernc.org/sqlite driver and applies the embedded
// goose migrations. Cars are listed in id order, which is the order the
// viewer displays them in.
package db
