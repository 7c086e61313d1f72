package collection

import (
	"fmt"

	"RestQueryAPI/internal/model"
	"RestQueryAPI/internal/query"
)

// render unpacks materialized rows column-wise into the response payload.
// Duplicates are collapsed only when adjacent: rows come out of the
// database in the requested order and joined relations repeat the primary
// entity once per related row.
func (c *Controller) render(m *model.Model, p plan, rows [][]any, total int64) map[string]any {
	out := map[string]any{
		"meta": map[string]any{"total": total},
	}

	width := len(m.Columns)
	if p.group.Active() {
		width = 1 + len(p.group.Params)
	}

	items := []map[string]any{}
	if p.group.Active() {
		out["group_by"] = groups(p.group, rows)
	} else {
		pk := m.GetPrimaryKey()
		var last any
		for i, row := range rows {
			item := entity(m.Columns.Names(), row[:width])
			if i > 0 && same(item[pk], last) {
				continue
			}
			last = item[pk]
			if c.ListItemTransform != nil {
				item = c.ListItemTransform(m, item)
			}
			items = append(items, item)
		}
	}
	out[m.PluralLabel()] = items

	offset := width
	for _, a := range p.attached {
		pk := a.Model.GetPrimaryKey()
		related := []map[string]any{}
		var last any
		for _, row := range rows {
			item := entity(a.Columns, row[offset:offset+len(a.Columns)])
			id, ok := item[pk]
			if !ok || id == nil {
				continue
			}
			if len(related) > 0 && same(id, last) {
				continue
			}
			last = id
			related = append(related, item)
		}
		out[a.Name] = related
		offset += len(a.Columns)
	}
	return out
}

func entity(names []string, values []any) map[string]any {
	item := make(map[string]any, len(names))
	for i, name := range names {
		item[name] = values[i]
	}
	return item
}

// groups emits one record per run of equal group-key tuples.
func groups(g query.GroupBy, rows [][]any) []map[string]any {
	out := []map[string]any{}
	var lastKey string
	for i, row := range rows {
		key := fmt.Sprintf("%#v", row[1:1+len(g.Params)])
		if i > 0 && key == lastKey {
			continue
		}
		lastKey = key
		rec := entity(g.Params, row[1:1+len(g.Params)])
		rec[query.AmountColumn] = row[0]
		out = append(out, rec)
	}
	return out
}

func same(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}
