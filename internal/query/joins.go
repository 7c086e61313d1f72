package query

import (
	"fmt"

	"RestQueryAPI/internal/model"

	"github.com/Masterminds/squirrel"
)

// MainAlias is the alias of the queried entity table.
const MainAlias = "main"

type JoinKind string

const (
	JoinInner JoinKind = "inner"
	JoinOuter JoinKind = "outer"
)

// JoinPlan accumulates relation joins for one request, keeping the order in
// which relations were first registered.
type JoinPlan struct {
	order []string
	kinds map[string]JoinKind
}

func NewJoinPlan() *JoinPlan {
	return &JoinPlan{kinds: map[string]JoinKind{}}
}

// Set registers or overwrites the join kind of a relation.
func (p *JoinPlan) Set(name string, kind JoinKind) {
	if _, ok := p.kinds[name]; !ok {
		p.order = append(p.order, name)
	}
	p.kinds[name] = kind
}

// SetIfAbsent registers kind only for a relation not planned yet.
func (p *JoinPlan) SetIfAbsent(name string, kind JoinKind) bool {
	if _, ok := p.kinds[name]; ok {
		return false
	}
	p.Set(name, kind)
	return true
}

func (p *JoinPlan) Kind(name string) (JoinKind, bool) {
	k, ok := p.kinds[name]
	return k, ok
}

func (p *JoinPlan) Names() []string {
	return append([]string(nil), p.order...)
}

func (p *JoinPlan) Len() int { return len(p.order) }

// Prune drops every relation keep rejects.
func (p *JoinPlan) Prune(keep func(name string) bool) {
	order := p.order[:0]
	for _, name := range p.order {
		if keep(name) {
			order = append(order, name)
			continue
		}
		delete(p.kinds, name)
	}
	p.order = order
}

func (p *JoinPlan) Clone() *JoinPlan {
	c := NewJoinPlan()
	for _, name := range p.order {
		c.Set(name, p.kinds[name])
	}
	return c
}

// RelationAlias is the SQL alias a relation target is joined under.
// Self-referential relations get their own prefix so the target never
// shadows the main table.
func RelationAlias(rel *model.ModelRelation) string {
	if rel.SelfReferential {
		return "self_" + rel.Name
	}
	return "r_" + rel.Name
}

// NaturalOn is the join condition implied by the relation type.
func NaturalOn(rel *model.ModelRelation, parentAlias string) string {
	alias := RelationAlias(rel)
	if rel.IsBelongsTo() {
		// parent.FK = alias.PK
		return fmt.Sprintf("%s.%s = %s.%s", parentAlias, rel.FK, alias, rel.PK)
	}
	// alias.FK = parent.PK
	return fmt.Sprintf("%s.%s = %s.%s", alias, rel.FK, parentAlias, rel.PK)
}

// Attached describes the columns of one stitched relation in a result row,
// in selection order right after the columns that precede it.
type Attached struct {
	Name    string
	Model   *model.Model
	Columns []string
}

// ApplyJoins emits the planned joins. Relations listed in attach also get
// their columns selected, in attach order. overrides replaces the ON clause
// per relation. An empty plan leaves sb unchanged.
func ApplyJoins(
	sb squirrel.SelectBuilder,
	m *model.Model,
	parentAlias string,
	plan *JoinPlan,
	attach []string,
	overrides map[string]string,
) (squirrel.SelectBuilder, []Attached) {
	if plan == nil || plan.Len() == 0 {
		return sb, nil
	}
	for _, name := range plan.Names() {
		rel := m.GetRelation(name)
		if rel == nil || rel.GetModelRef() == nil {
			continue
		}
		on, ok := overrides[name]
		if !ok {
			on = NaturalOn(rel, parentAlias)
		}
		clause := fmt.Sprintf("%s AS %s ON %s", rel.GetModelRef().Table, RelationAlias(rel), on)
		kind, _ := plan.Kind(name)
		if kind == JoinInner {
			sb = sb.Join(clause)
		} else {
			sb = sb.LeftJoin(clause)
		}
	}

	var attached []Attached
	for _, name := range attach {
		if _, ok := plan.Kind(name); !ok {
			continue
		}
		rel := m.GetRelation(name)
		if rel == nil || rel.GetModelRef() == nil {
			continue
		}
		target := rel.GetModelRef()
		alias := RelationAlias(rel)
		cols := target.Columns.Names()
		for _, c := range cols {
			sb = sb.Column(fmt.Sprintf("%s.%s AS %s__%s", alias, c, alias, c))
		}
		attached = append(attached, Attached{Name: name, Model: target, Columns: cols})
	}
	return sb, attached
}
