package query

import (
	"fmt"
	"net/url"
	"strings"

	"RestQueryAPI/internal/db"
	"RestQueryAPI/internal/model"

	"github.com/Masterminds/squirrel"
)

// GroupAlias is the alias of the counted grouping sub-query.
const GroupAlias = "grp"

// AmountColumn is the label of the per-group count.
const AmountColumn = "amount"

// AmountAliases are the sort and search keys that address the count.
var AmountAliases = []string{"group_by.amount", "group_by_amount", "amount"}

type GroupBy struct {
	Params  []string
	Columns []string
	// RelationshipMap maps a grouped "<relation>_id" column to its relation.
	RelationshipMap map[string]string
}

func (g GroupBy) Active() bool { return len(g.Params) > 0 }

// Relations returns the relation names grouping goes through.
func (g GroupBy) Relations() map[string]bool {
	out := make(map[string]bool, len(g.RelationshipMap))
	for _, rel := range g.RelationshipMap {
		out[rel] = true
	}
	return out
}

// CompileGroupBy reads repeatable group_by values naming real columns of m.
// When grouping is active plan is pruned to the relations grouping goes
// through, since the grouped sub-query exposes nothing else.
func CompileGroupBy(m *model.Model, p url.Values, plan *JoinPlan) GroupBy {
	var g GroupBy
	seen := map[string]bool{}
	for _, raw := range Values(p, "group_by") {
		name := strings.TrimSpace(raw)
		if name == "" || seen[name] || m.GetColumn(name) == nil {
			continue
		}
		seen[name] = true
		g.Params = append(g.Params, name)
		g.Columns = append(g.Columns, fmt.Sprintf("%s.%s AS %s", MainAlias, name, name))
	}
	if !g.Active() {
		return g
	}

	g.RelationshipMap = map[string]string{}
	for _, relName := range m.RelationNames() {
		rel := m.GetRelation(relName)
		if rel.IsBelongsTo() && seen[rel.FK] {
			g.RelationshipMap[rel.FK] = relName
		}
	}

	relevant := g.Relations()
	plan.Prune(func(name string) bool { return relevant[name] })
	return g
}

// GroupedColumns qualifies the grouped params through the sub-query alias.
func (g GroupBy) GroupedColumns() []string {
	out := make([]string, len(g.Params))
	for i, name := range g.Params {
		out[i] = GroupAlias + "." + name
	}
	return out
}

// OrderOverrides maps every grouped param and amount alias to its
// sub-query column.
func (g GroupBy) OrderOverrides() map[string]string {
	out := make(map[string]string, len(g.Params)+len(AmountAliases))
	for _, name := range g.Params {
		out[name] = GroupAlias + "." + name
	}
	for _, alias := range AmountAliases {
		out[alias] = GroupAlias + "." + AmountColumn
	}
	return out
}

// Excludes drops sort keys the grouped sub-query cannot order by. Grouped
// params and amount aliases are kept.
func (g GroupBy) Excludes(key string) bool {
	for _, alias := range AmountAliases {
		if alias == key {
			return false
		}
	}
	if relName, _, dotted := strings.Cut(key, "."); dotted {
		return !g.Relations()[relName]
	}
	for _, name := range g.Params {
		if name == key {
			return false
		}
	}
	return true
}

// DefaultOrder orders groups by their params in request order.
func (g GroupBy) DefaultOrder() []OrderTerm {
	out := make([]OrderTerm, len(g.Params))
	for i, col := range g.GroupedColumns() {
		out[i] = OrderTerm{Expr: col, Asc: true}
	}
	return out
}

// JoinOverrides points grouped relations at the sub-query foreign keys.
func (g GroupBy) JoinOverrides(m *model.Model) map[string]string {
	out := make(map[string]string, len(g.RelationshipMap))
	for fk, relName := range g.RelationshipMap {
		rel := m.GetRelation(relName)
		out[relName] = fmt.Sprintf("%s.%s = %s.%s", RelationAlias(rel), rel.PK, GroupAlias, fk)
	}
	return out
}

// AmountFilters turns search entries on an amount alias into predicates on
// the group count. They apply to the outer query, where the count exists.
func (g GroupBy) AmountFilters(d db.Dialect, s SearchParams) []squirrel.Sqlizer {
	ref := ColumnRef{
		Expr:   GroupAlias + "." + AmountColumn,
		Column: model.Column{Name: AmountColumn, Type: "int"},
	}
	var out []squirrel.Sqlizer
	add := func(value any, mt MatchType) {
		if f := AddSearchFilter(d, ref, value, mt); f != nil {
			out = append(out, f)
		}
	}
	for _, key := range []string{"group_by_amount", "amount"} {
		if v, ok := s.Search[key]; ok {
			if _, nested := v.(map[string]any); !nested {
				add(v, s.MatchFor("", key))
			}
		}
	}
	if sub, ok := s.Search["group_by"].(map[string]any); ok {
		if v, ok := sub[AmountColumn]; ok {
			add(v, s.MatchFor("group_by", AmountColumn))
		}
	}
	return out
}
