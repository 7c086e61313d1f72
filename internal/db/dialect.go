package db

import "github.com/Masterminds/squirrel"

// Dialect carries the few SQL differences the query builder cares about.
type Dialect struct {
	Name        string
	Placeholder squirrel.PlaceholderFormat
	// ILike is the case-insensitive LIKE operator.
	ILike string
}

var (
	Postgres = Dialect{Name: "postgres", Placeholder: squirrel.Dollar, ILike: "ILIKE"}
	// LIKE и LOWER в SQLite складывают регистр только для ASCII:
	// "ärger" не найдёт "Ärger". Для полного Unicode нужен PostgreSQL.
	SQLite = Dialect{Name: "sqlite", Placeholder: squirrel.Question, ILike: "LIKE"}
)

// Builder returns a statement builder bound to the dialect placeholders.
func (d Dialect) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(d.Placeholder)
}
