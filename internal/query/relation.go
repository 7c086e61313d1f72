package query

import (
	"net/url"
	"strings"

	"RestQueryAPI/internal/model"
)

// CompileRelationLoad reads the with/stitch parameters and returns the known
// relation names in request order. Each one not planned yet gets an outer
// join; existing kinds are left alone. allowed, when set, restricts the
// accepted relations.
func CompileRelationLoad(m *model.Model, p url.Values, plan *JoinPlan, allowed func(name string) bool) []string {
	requested := append(Values(p, "with"), Values(p, "stitch")...)

	seen := map[string]bool{}
	var out []string
	for _, raw := range requested {
		for _, name := range strings.Split(raw, ",") {
			name = strings.TrimSpace(name)
			if name == "" || seen[name] {
				continue
			}
			rel := m.GetRelation(name)
			if rel == nil || rel.GetModelRef() == nil {
				continue
			}
			if allowed != nil && !allowed(name) {
				continue
			}
			seen[name] = true
			plan.SetIfAbsent(name, JoinOuter)
			out = append(out, name)
		}
	}
	return out
}
