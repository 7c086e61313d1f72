package collection

import (
	"context"
	"fmt"
	"net/url"

	"RestQueryAPI/internal/db"
	"RestQueryAPI/internal/logger"
	"RestQueryAPI/internal/model"
	"RestQueryAPI/internal/query"

	"github.com/Masterminds/squirrel"
)

// Controller compiles collection requests and runs them against Store.
type Controller struct {
	Store        db.Store
	DefaultLimit uint64
	MaxLimit     uint64
	// Counts caches totals, optional.
	Counts CountCache
	// ListItemTransform is applied to every primary item, optional.
	ListItemTransform func(m *model.Model, item map[string]any) map[string]any
}

// plan is one compiled request, ready to execute.
type plan struct {
	rows     squirrel.SelectBuilder
	count    squirrel.SelectBuilder
	attached []query.Attached
	group    query.GroupBy
}

// Get runs the collection pipeline for m with request parameters p.
func (c *Controller) Get(ctx context.Context, m *model.Model, p url.Values) (map[string]any, error) {
	var compiled plan
	if ids, ok := query.CompileIDs(m, p); ok {
		compiled = c.compileIDs(m, p, ids)
	} else {
		compiled = c.compile(m, p)
	}

	total, err := c.total(ctx, compiled.count)
	if err != nil {
		return nil, err
	}

	sqlStr, args, err := compiled.rows.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build collection query: %w", err)
	}
	logger.Debug("sql", map[string]any{
		"model": m.Name,
		"sql":   sqlStr,
		"args":  args,
	})
	rows, err := c.Store.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("collection query: %w", err)
	}

	return c.render(m, compiled, rows, total), nil
}

func (c *Controller) base(m *model.Model) squirrel.SelectBuilder {
	cols := make([]string, 0, len(m.Columns))
	for _, name := range m.Columns.Names() {
		cols = append(cols, fmt.Sprintf("%s.%s AS %s", query.MainAlias, name, name))
	}
	return c.Store.Dialect().Builder().
		Select(cols...).
		From(fmt.Sprintf("%s AS %s", m.Table, query.MainAlias))
}

func (c *Controller) countBase(m *model.Model, joined bool) squirrel.SelectBuilder {
	expr := "COUNT(*)"
	if joined {
		// has_many-связи размножают строки
		expr = fmt.Sprintf("COUNT(DISTINCT %s.%s)", query.MainAlias, m.GetPrimaryKey())
	}
	return c.Store.Dialect().Builder().
		Select(expr).
		From(fmt.Sprintf("%s AS %s", m.Table, query.MainAlias))
}

func (c *Controller) pagerOptions(m *model.Model) query.PagerOptions {
	return query.PagerOptions{
		DefaultOrderBy: query.ParseOrder(query.MainAlias, m.Order),
		DefaultLimit:   c.DefaultLimit,
		MaxLimit:       c.MaxLimit,
	}
}

// compile is the fixed stage order: search, paging, relation load, joins,
// group by, filters, slice.
func (c *Controller) compile(m *model.Model, p url.Values) plan {
	d := c.Store.Dialect()
	joins := query.NewJoinPlan()

	search := query.CompileSearch(d, m, p, joins)
	// подзапрос группировки видит только джойны поиска
	innerJoins := joins.Clone()
	paging := query.CompilePager(m, p, joins, c.pagerOptions(m))
	with := query.CompileRelationLoad(m, p, joins, nil)

	rows, attached := query.ApplyJoins(c.base(m), m, query.MainAlias, joins, with, nil)

	group := query.CompileGroupBy(m, p, joins)
	if group.Active() {
		return c.compileGrouped(m, p, search, group, innerJoins, joins)
	}

	count := c.countBase(m, joins.Len() > 0)
	count, _ = query.ApplyJoins(count, m, query.MainAlias, joins, nil, nil)
	if where := search.Combined(); where != nil {
		rows = rows.Where(where)
		count = count.Where(where)
	}
	rows = slice(rows, paging)
	return plan{rows: rows, count: count, attached: attached}
}

func (c *Controller) compileGrouped(
	m *model.Model,
	p url.Values,
	search query.Search,
	group query.GroupBy,
	innerJoins, joins *query.JoinPlan,
) plan {
	d := c.Store.Dialect()

	amount := "COUNT(*)"
	if innerJoins.Len() > 0 {
		amount = fmt.Sprintf("COUNT(DISTINCT %s.%s)", query.MainAlias, m.GetPrimaryKey())
	}
	cols := append([]string{amount + " AS " + query.AmountColumn}, group.Columns...)
	grouped := d.Builder().
		Select(cols...).
		From(fmt.Sprintf("%s AS %s", m.Table, query.MainAlias))
	grouped, _ = query.ApplyJoins(grouped, m, query.MainAlias, innerJoins, nil, nil)

	// outer holds predicates on whole groups
	amountFilters := group.AmountFilters(d, search.Params)
	outer := amountFilters
	where := search.Combined()
	switch {
	case where == nil:
	case len(amountFilters) > 0 && !search.Params.IsAnd():
		// OR с amount: строки не фильтруем, группа проходит, если в ней
		// нашлась подходящая строка или подошёл amount
		grouped = grouped.Column(matchedFlag{pred: where})
		outer = append([]squirrel.Sqlizer{
			squirrel.Expr(query.GroupAlias + "." + matchedColumn + " = 1"),
		}, amountFilters...)
	default:
		grouped = grouped.Where(where)
	}
	groupCols := make([]string, len(group.Params))
	for i, name := range group.Params {
		groupCols[i] = query.MainAlias + "." + name
	}
	grouped = grouped.GroupBy(groupCols...)

	paging := query.CompilePager(m, p, joins, query.PagerOptions{
		ParentAlias:      query.GroupAlias,
		OrderByOverrides: group.OrderOverrides(),
		DefaultOrderBy:   group.DefaultOrder(),
		Excluded:         group.Excludes,
		DefaultLimit:     c.DefaultLimit,
		MaxLimit:         c.MaxLimit,
	})
	relevant := group.Relations()
	with := query.CompileRelationLoad(m, p, joins, func(name string) bool { return relevant[name] })

	outerCols := append([]string{query.GroupAlias + "." + query.AmountColumn}, group.GroupedColumns()...)
	rows := d.Builder().Select(outerCols...).FromSelect(grouped, query.GroupAlias)
	rows, attached := query.ApplyJoins(rows, m, query.GroupAlias, joins, with, group.JoinOverrides(m))

	count := d.Builder().Select("COUNT(*)").FromSelect(grouped, query.GroupAlias)
	count, _ = query.ApplyJoins(count, m, query.GroupAlias, joins, nil, group.JoinOverrides(m))

	if len(outer) > 0 {
		var filter squirrel.Sqlizer
		switch {
		case len(outer) == 1:
			filter = outer[0]
		case search.Params.IsAnd():
			filter = squirrel.And(outer)
		default:
			filter = squirrel.Or(outer)
		}
		rows = rows.Where(filter)
		count = count.Where(filter)
	}
	rows = slice(rows, paging)
	return plan{rows: rows, count: count, attached: attached, group: group}
}

const matchedColumn = "search_matched"

// matchedFlag is 1 for a group holding at least one row that matches pred.
type matchedFlag struct {
	pred squirrel.Sqlizer
}

func (f matchedFlag) ToSql() (string, []any, error) {
	sql, args, err := f.pred.ToSql()
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("MAX(CASE WHEN %s THEN 1 ELSE 0 END) AS %s", sql, matchedColumn), args, nil
}

// compileIDs restricts the collection to explicit primary keys, ordered by
// the key. Search, paging and grouping do not apply.
func (c *Controller) compileIDs(m *model.Model, p url.Values, ids []any) plan {
	joins := query.NewJoinPlan()
	with := query.CompileRelationLoad(m, p, joins, nil)
	rows, attached := query.ApplyJoins(c.base(m), m, query.MainAlias, joins, with, nil)
	count := c.countBase(m, false)

	// пустой список squirrel превращает в (1=0)
	pk := query.MainAlias + "." + m.GetPrimaryKey()
	where := squirrel.Eq{pk: ids}
	rows = rows.Where(where).OrderBy(pk + " ASC")
	count = count.Where(where)
	return plan{rows: rows, count: count, attached: attached}
}

func slice(sb squirrel.SelectBuilder, paging query.Paging) squirrel.SelectBuilder {
	sb = sb.OrderBy(paging.OrderClauses()...)
	if paging.HasLimit() {
		sb = sb.Limit(paging.Limit)
		if paging.Start > 0 {
			sb = sb.Offset(paging.Start)
		}
	}
	return sb
}

func (c *Controller) total(ctx context.Context, count squirrel.SelectBuilder) (int64, error) {
	sqlStr, args, err := count.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}
	key := countKey(sqlStr, args)
	if c.Counts != nil {
		if n, ok := c.Counts.Get(ctx, key); ok {
			return n, nil
		}
	}
	row, err := c.Store.QueryRow(ctx, sqlStr, args...)
	if err != nil {
		return 0, fmt.Errorf("count query: %w", err)
	}
	n, err := toInt64(row[0])
	if err != nil {
		return 0, fmt.Errorf("count query: %w", err)
	}
	if c.Counts != nil {
		c.Counts.Set(ctx, key, n)
	}
	return n, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	}
	return 0, fmt.Errorf("unexpected count type %T", v)
}
