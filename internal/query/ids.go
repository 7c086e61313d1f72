package query

import (
	"net/url"
	"strings"

	"RestQueryAPI/internal/model"
)

// CompileIDs reads ids / ids[] (repeatable, comma separated) and coerces
// them to the primary key type. present is false when no ids parameter was
// sent at all.
func CompileIDs(m *model.Model, p url.Values) (ids []any, present bool) {
	raw := Values(p, "ids")
	if len(raw) == 0 {
		return nil, false
	}
	pk := m.PrimaryColumn()
	seen := map[any]bool{}
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, ok := Coerce(pk, part)
			if !ok || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, true
}
