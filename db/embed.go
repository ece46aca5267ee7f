// Package db provides embedded database schema and seed data.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// ProductsJSON is the demo product catalog, used to seed both storage
// backends.
//
//go:embed seed/products.json
var ProductsJSON []byte
