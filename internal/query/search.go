package query

import (
	"net/url"
	"strconv"
	"strings"

	"RestQueryAPI/internal/db"
	"RestQueryAPI/internal/model"

	"github.com/Masterminds/squirrel"
)

// SearchParams is the normalized search intent of one request.
type SearchParams struct {
	// Search maps a column to a value, or a relation to column→value.
	Search map[string]any
	// AndJoint is nil when no search was supplied. The list form of the
	// search parameter means AND, the scalar form means OR.
	AndJoint *bool
	// SearchType has the shape of Search and holds wire match codes.
	SearchType map[string]any
	// Keys keeps the first-seen order of Search keys, sub-keys under
	// "relation." entries.
	Keys []string
}

type Search struct {
	Params  SearchParams
	Filters []squirrel.Sqlizer
}

// IsAnd reports the joint; false when no search was supplied.
func (s SearchParams) IsAnd() bool {
	return s.AndJoint != nil && *s.AndJoint
}

// MatchFor returns the decoded match type for column, or relation.column
// when relation is set. Missing entries are code 0.
func (s SearchParams) MatchFor(relation, column string) MatchType {
	var raw any
	if relation == "" {
		raw = s.SearchType[column]
	} else if sub, ok := s.SearchType[relation].(map[string]any); ok {
		raw = sub[column]
	}
	return DecodeMatchType(matchCode(raw))
}

func matchCode(v any) int {
	switch x := v.(type) {
	case float64:
		return int(x)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// Combined joins the filters by the request joint, nil when empty.
func (s Search) Combined() squirrel.Sqlizer {
	switch len(s.Filters) {
	case 0:
		return nil
	case 1:
		return s.Filters[0]
	}
	if s.Params.IsAnd() {
		return squirrel.And(s.Filters)
	}
	return squirrel.Or(s.Filters)
}

// ParseSearchParams reads search, column_names and search_type. A request
// missing either search or column_names yields empty params.
func ParseSearchParams(p url.Values) SearchParams {
	params := SearchParams{Search: map[string]any{}, SearchType: map[string]any{}}
	raw := First(p, "search")
	rawNames := First(p, "column_names")
	if strings.TrimSpace(raw) == "" || strings.TrimSpace(rawNames) == "" {
		return params
	}

	parts := strings.Split(rawNames, ",")
	names := make([]string, len(parts))
	for i, part := range parts {
		names[i] = strings.ToLower(strings.TrimSpace(part))
	}

	seen := map[string]bool{}
	for _, name := range names {
		if name != "" && !seen[name] {
			seen[name] = true
			params.Keys = append(params.Keys, name)
		}
	}

	isList := NormalizeList(raw, names, func(name string, value any) {
		SetDotted(params.Search, name, value)
	})
	params.AndJoint = &isList

	if rawType := First(p, "search_type"); rawType != "" {
		NormalizeList(rawType, names, func(name string, value any) {
			SetDotted(params.SearchType, name, value)
		})
	}
	return params
}

// CompileSearch builds the search predicates against m. Relations searched
// on are registered in plan: inner for an AND joint, outer otherwise.
// Unknown columns and relations are skipped.
func CompileSearch(d db.Dialect, m *model.Model, p url.Values, plan *JoinPlan) Search {
	params := ParseSearchParams(p)
	search := Search{Params: params}
	if params.AndJoint == nil {
		return search
	}

	kind := JoinOuter
	if params.IsAnd() {
		kind = JoinInner
	}

	done := map[string]bool{}
	for _, key := range params.Keys {
		top, _, _ := strings.Cut(key, ".")
		if done[top] {
			continue
		}
		done[top] = true

		switch value := params.Search[top].(type) {
		case nil:
			continue
		case map[string]any:
			rel := m.GetRelation(top)
			if rel == nil || rel.GetModelRef() == nil {
				continue
			}
			plan.Set(top, kind)
			alias := RelationAlias(rel)
			for _, sub := range subKeys(params.Keys, top) {
				v, ok := value[sub]
				if !ok {
					continue
				}
				col := rel.GetModelRef().GetColumn(sub)
				if col == nil {
					continue
				}
				if f := AddSearchFilter(d, Ref(alias, *col), v, params.MatchFor(top, sub)); f != nil {
					search.Filters = append(search.Filters, f)
				}
			}
		default:
			col := m.GetColumn(top)
			if col == nil {
				continue
			}
			if f := AddSearchFilter(d, Ref(MainAlias, *col), value, params.MatchFor("", top)); f != nil {
				search.Filters = append(search.Filters, f)
			}
		}
	}
	return search
}

func subKeys(keys []string, relation string) []string {
	var out []string
	for _, key := range keys {
		if rel, sub, ok := strings.Cut(key, "."); ok && rel == relation {
			out = append(out, sub)
		}
	}
	return out
}
