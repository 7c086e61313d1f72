// Package modeltest provides a linked entity registry for tests.
package modeltest

import (
	"testing"

	"RestQueryAPI/internal/model"
)

const PersonYAML = `
table: people
label: person
plural: people
columns:
  id: int
  name: string
  status: string
  age: int
  active: bool
  manager_id: int
  department_id: int
relations:
  manager: { type: belongs_to, model: person }
  department: { type: belongs_to, model: department }
  tasks: { type: has_many, model: task }
`

const DepartmentYAML = `
table: departments
label: department
columns:
  id: int
  title: string
relations:
  people: { type: has_many, model: person, fk: department_id }
`

const TaskYAML = `
table: tasks
label: task
columns:
  id: int
  title: string
  person_id: int
relations:
  person: { type: belongs_to, model: person }
`

// Registry returns person/department/task linked together.
func Registry(t testing.TB) map[string]*model.Model {
	t.Helper()
	reg := map[string]*model.Model{}
	for name, src := range map[string]string{
		"person":     PersonYAML,
		"department": DepartmentYAML,
		"task":       TaskYAML,
	} {
		m, err := model.ParseModel(name, []byte(src))
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		reg[name] = m
	}
	if err := model.LinkModelRelations(reg); err != nil {
		t.Fatalf("link: %v", err)
	}
	return reg
}
