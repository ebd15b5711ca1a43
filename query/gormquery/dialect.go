package gormquery

import (
	"fmt"
	"strings"

	"github.com/amirphl/filterkit/lookup"
	"gorm.io/gorm"
)

// Dialect renders the lookups whose SQL differs between database engines.
// Column arguments are already quoted.
type Dialect interface {
	Name() string
	// ILike renders a case-insensitive LIKE against a single placeholder
	ILike(column string) string
	// DatePart renders the integer year, month, day or week_day (1 = Sunday) of column
	DatePart(part lookup.Type, column string) string
	Regex(column, pattern string, insensitive bool) (string, []any)
	Search(column, terms string) (string, []any)
}

type postgresDialect struct{}

// Postgres is the default dialect
var Postgres Dialect = postgresDialect{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) ILike(column string) string {
	return column + ` ILIKE ? ESCAPE '\'`
}

func (postgresDialect) DatePart(part lookup.Type, column string) string {
	switch part {
	case lookup.Month:
		return fmt.Sprintf("EXTRACT(MONTH FROM %s)", column)
	case lookup.Day:
		return fmt.Sprintf("EXTRACT(DAY FROM %s)", column)
	case lookup.WeekDay:
		return fmt.Sprintf("(EXTRACT(DOW FROM %s) + 1)", column)
	default:
		return fmt.Sprintf("EXTRACT(YEAR FROM %s)", column)
	}
}

func (postgresDialect) Regex(column, pattern string, insensitive bool) (string, []any) {
	if insensitive {
		return column + " ~* ?", []any{pattern}
	}
	return column + " ~ ?", []any{pattern}
}

func (postgresDialect) Search(column, terms string) (string, []any) {
	return fmt.Sprintf("to_tsvector(%s) @@ plainto_tsquery(?)", column), []any{terms}
}

type sqliteDialect struct{}

// SQLite expects a REGEXP function registered on the connection
var SQLite Dialect = sqliteDialect{}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) ILike(column string) string {
	return fmt.Sprintf(`LOWER(%s) LIKE LOWER(?) ESCAPE '\'`, column)
}

func (sqliteDialect) DatePart(part lookup.Type, column string) string {
	format := "%Y"
	switch part {
	case lookup.Month:
		format = "%m"
	case lookup.Day:
		format = "%d"
	case lookup.WeekDay:
		return fmt.Sprintf("(CAST(strftime('%%w', %s) AS INTEGER) + 1)", column)
	}
	return fmt.Sprintf("CAST(strftime('%s', %s) AS INTEGER)", format, column)
}

func (sqliteDialect) Regex(column, pattern string, insensitive bool) (string, []any) {
	if insensitive {
		pattern = "(?i)" + pattern
	}
	return column + " REGEXP ?", []any{pattern}
}

func (sqliteDialect) Search(column, terms string) (string, []any) {
	words := strings.Fields(strings.ToLower(terms))
	if len(words) == 0 {
		return "1 = 1", nil
	}
	parts := make([]string, len(words))
	args := make([]any, len(words))
	for i, w := range words {
		parts[i] = fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, column)
		args[i] = "%" + escapeLike(w) + "%"
	}
	return strings.Join(parts, " AND "), args
}

// DialectFor picks the dialect matching the gorm dialector, falling back to Postgres
func DialectFor(db *gorm.DB) Dialect {
	if db != nil && db.Dialector != nil && db.Dialector.Name() == SQLite.Name() {
		return SQLite
	}
	return Postgres
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
