package content

import _ "embed"

// Schema creates the tables backing the registered entity types. It is
// idempotent.
//
//go:embed sql/schema.sql
var Schema string

// DemoData inserts a small sample of users, terms and nodes. Rows that
// already exist are left untouched.
//
//go:embed sql/demo.sql
var DemoData string
