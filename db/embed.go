// Package db embeds the catalog database schema.
package db

import _ "embed"

// Schema contains the DDL statements for the product and promotion tables.
//
//go:embed migrations/001_schema.sql
var Schema string
