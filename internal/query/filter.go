package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"RestQueryAPI/internal/db"
	"RestQueryAPI/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// ColumnRef is a column qualified by the alias it is selected through.
type ColumnRef struct {
	Expr   string // e.g. "main.name"
	Column model.Column
}

func Ref(alias string, c model.Column) ColumnRef {
	return ColumnRef{Expr: alias + "." + c.Name, Column: c}
}

type notExpr struct {
	pred squirrel.Sqlizer
}

func (n notExpr) ToSql() (string, []any, error) {
	sql, args, err := n.pred.ToSql()
	if err != nil {
		return "", nil, err
	}
	return "NOT (" + sql + ")", args, nil
}

// AddSearchFilter builds one search predicate. nil means the filter is
// dropped, which happens when an exact value cannot be coerced to the
// column type.
func AddSearchFilter(d db.Dialect, ref ColumnRef, value any, mt MatchType) squirrel.Sqlizer {
	text := formatValue(value)

	var expr squirrel.Sqlizer
	switch mt.Mode {
	case MatchExact:
		if ref.Column.IsText() {
			expr = squirrel.Expr(fmt.Sprintf("LOWER(%s) = LOWER(?)", ref.Expr), text)
			break
		}
		v, ok := Coerce(ref.Column, text)
		if !ok {
			return nil
		}
		expr = squirrel.Eq{ref.Expr: v}
	case MatchStartsWith:
		expr = likeExpr(d, ref, text+"%")
	case MatchEndsWith:
		expr = likeExpr(d, ref, "%"+text)
	default:
		expr = likeExpr(d, ref, "%"+text+"%")
	}

	if mt.Negate {
		return notExpr{pred: expr}
	}
	return expr
}

func likeExpr(d db.Dialect, ref ColumnRef, pattern string) squirrel.Sqlizer {
	target := ref.Expr
	if !ref.Column.IsText() {
		target = fmt.Sprintf("CAST(%s AS TEXT)", ref.Expr)
	}
	return squirrel.Expr(fmt.Sprintf("%s %s ?", target, d.ILike), pattern)
}

// Coerce converts text to the native value of the column type.
func Coerce(c model.Column, text string) (any, bool) {
	s := strings.TrimSpace(text)
	switch c.Type {
	case "string", "text":
		return text, true
	case "int":
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			// "2.0" из JSON-чисел
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil || f != float64(int64(f)) {
				return nil, false
			}
			return int64(f), true
		}
		return v, true
	case "float":
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		return v, true
	case "bool":
		v, err := strconv.ParseBool(s)
		if err != nil {
			return nil, false
		}
		return v, true
	case "date":
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return nil, false
		}
		return t.Format(time.DateOnly), true
	case "datetime":
		for _, layout := range []string{time.RFC3339Nano, time.DateTime} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format(time.DateTime), true
			}
		}
		return nil, false
	case "time":
		t, err := time.Parse(time.TimeOnly, s)
		if err != nil {
			return nil, false
		}
		return t.Format(time.TimeOnly), true
	case "UUID":
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, false
		}
		return id.String(), true
	}
	return nil, false
}
