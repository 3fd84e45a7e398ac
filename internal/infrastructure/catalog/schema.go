package catalog

import (
	_ "embed"
	"strings"
)

//go:embed schema_postgres.sql
var postgresSchema string

//go:embed schema_sqlite.sql
var sqliteSchema string

// renderSchema substitutes the configured table names into a schema template
func renderSchema(tmpl string, t Tables) string {
	return strings.NewReplacer(
		"{{products}}", t.Products,
		"{{overrides}}", t.Overrides,
		"{{url_cache}}", t.URLCache,
		"{{lexicon}}", t.Lexicon,
	).Replace(tmpl)
}
