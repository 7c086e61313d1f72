package query

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"RestQueryAPI/internal/model"
)

// OrderTerm is one ORDER BY item.
type OrderTerm struct {
	Expr string
	Asc  bool
}

func (o OrderTerm) String() string {
	if o.Asc {
		return o.Expr + " ASC"
	}
	return o.Expr + " DESC"
}

type Paging struct {
	Page  uint64
	Limit uint64 // 0 = unlimited
	Start uint64
	Stop  uint64 // Start+Limit, 0 when unlimited

	SortBy  []string
	Asc     []bool
	OrderBy []OrderTerm
}

// HasLimit reports whether the result is sliced.
func (p Paging) HasLimit() bool { return p.Limit > 0 }

// OrderClauses renders OrderBy for squirrel.
func (p Paging) OrderClauses() []string {
	out := make([]string, len(p.OrderBy))
	for i, o := range p.OrderBy {
		out[i] = o.String()
	}
	return out
}

type PagerOptions struct {
	// ParentAlias qualifies plain columns, MainAlias when empty.
	ParentAlias string
	// OrderByOverrides maps a sort key to a ready SQL expression.
	OrderByOverrides map[string]string
	// DefaultOrderBy is used when no sort key resolves.
	DefaultOrderBy []OrderTerm
	// Excluded drops sort keys before resolution.
	Excluded func(key string) bool

	DefaultLimit uint64
	MaxLimit     uint64 // 0 = no clamp
}

// CompilePager parses page, limit, sort_by and directions. Relations sorted
// on are registered in plan as outer joins unless already planned. The
// result is never unordered: with nothing resolved it falls back to
// DefaultOrderBy, then to the primary key ascending.
func CompilePager(m *model.Model, p url.Values, plan *JoinPlan, opts PagerOptions) Paging {
	parent := opts.ParentAlias
	if parent == "" {
		parent = MainAlias
	}

	paging := Paging{Page: parsePage(First(p, "page"))}
	paging.Limit = parseLimit(First(p, "limit"), opts.DefaultLimit, opts.MaxLimit)
	if paging.Limit > 0 {
		// OFFSET и start+limit должны помещаться в BIGINT
		if paging.Page-1 > (math.MaxInt64-paging.Limit)/paging.Limit {
			paging.Page = 1
		}
		paging.Start = (paging.Page - 1) * paging.Limit
		paging.Stop = paging.Start + paging.Limit
	}

	paging.SortBy = Values(p, "sort_by")
	asc := Values(p, "asc")
	desc := Values(p, "desc")
	sorts := Values(p, "sort")
	paging.Asc = make([]bool, len(paging.SortBy))
	for i := range paging.SortBy {
		paging.Asc[i] = resolveAsc(i, asc, desc, sorts)
	}

	for i, key := range paging.SortBy {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if opts.Excluded != nil && opts.Excluded(key) {
			continue
		}
		expr, ok := resolveSortKey(m, key, parent, plan, opts.OrderByOverrides)
		if !ok {
			continue
		}
		paging.OrderBy = append(paging.OrderBy, OrderTerm{Expr: expr, Asc: paging.Asc[i]})
	}

	if len(paging.OrderBy) == 0 {
		if len(opts.DefaultOrderBy) > 0 {
			paging.OrderBy = append(paging.OrderBy, opts.DefaultOrderBy...)
		} else {
			paging.OrderBy = []OrderTerm{{Expr: parent + "." + m.GetPrimaryKey(), Asc: true}}
		}
	}
	return paging
}

// resolveAsc is ascending when any of the three conventions says so:
// asc is truthy, desc is present and not truthy, or sort is present and
// not down/desc. Missing entries count as descending.
func resolveAsc(i int, asc, desc, sorts []string) bool {
	if i < len(asc) && isTruthyToken(asc[i]) {
		return true
	}
	if i < len(desc) && !isTruthyToken(desc[i]) {
		return true
	}
	if i < len(sorts) {
		s := strings.ToLower(strings.TrimSpace(sorts[i]))
		if s != "down" && s != "desc" {
			return true
		}
	}
	return false
}

func resolveSortKey(m *model.Model, key, parent string, plan *JoinPlan, overrides map[string]string) (string, bool) {
	if expr, ok := overrides[key]; ok {
		return expr, true
	}
	if relName, colName, dotted := strings.Cut(key, "."); dotted {
		rel := m.GetRelation(relName)
		if rel == nil || rel.GetModelRef() == nil {
			return "", false
		}
		col := rel.GetModelRef().GetColumn(colName)
		if col == nil {
			return "", false
		}
		plan.SetIfAbsent(relName, JoinOuter)
		return RelationAlias(rel) + "." + col.Name, true
	}
	col := m.GetColumn(key)
	if col == nil {
		return "", false
	}
	return parent + "." + col.Name, true
}

func parsePage(raw string) uint64 {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 1
	}
	if n < 0 {
		n = -n
	}
	if n == 0 {
		return 1
	}
	return uint64(n)
}

func parseLimit(raw string, def, max uint64) uint64 {
	limit := def
	if n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil && n != 0 {
		if n < 0 {
			n = -n
		}
		limit = uint64(n)
	}
	if max > 0 && limit > max {
		limit = max
	}
	return limit
}

// ParseOrder reads a model default order such as "name" or "name desc".
func ParseOrder(alias, order string) []OrderTerm {
	var out []OrderTerm
	for _, part := range strings.Split(order, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		asc := len(fields) < 2 || !strings.EqualFold(fields[1], "desc")
		out = append(out, OrderTerm{Expr: alias + "." + fields[0], Asc: asc})
	}
	return out
}
