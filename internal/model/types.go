package model

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Model описывает сущность в конфигурации
type Model struct {
	Name       string                    `yaml:"-"` // logical name of the model (file name)
	Table      string                    `yaml:"table"`
	Label      string                    `yaml:"label"`       // singular label, e.g. "person"
	Plural     string                    `yaml:"plural"`      // collection label, e.g. "people"
	PrimaryKey string                    `yaml:"primary_key"` // optional, default "id"
	Order      string                    `yaml:"order"`       // default ORDER BY column
	Columns    ColumnList                `yaml:"columns"`
	Relations  map[string]*ModelRelation `yaml:"relations"`
}

// ModelRelation описывает связь между моделями в конфигурации
type ModelRelation struct {
	Name  string `yaml:"-"`
	Type  string `yaml:"type"`  // has_one, has_many, belongs_to
	Model string `yaml:"model"` // название связанной модели (логическое)
	FK    string `yaml:"fk"`    // внешний ключ
	PK    string `yaml:"pk"`    // ключ, на который указывает FK

	// для runtime (не сериализуется)
	SelfReferential bool   `yaml:"-"`
	_ModelRef       *Model `yaml:"-"`
}

// Column is a scalar column with its declared type.
type Column struct {
	Name string
	Type string
}

// IsText reports whether the column holds textual data.
func (c Column) IsText() bool {
	switch c.Type {
	case "string", "text":
		return true
	}
	return false
}

// ColumnList keeps the declaration order of the YAML mapping.
type ColumnList []Column

func (cl *ColumnList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("columns must be a mapping, line %d", node.Line)
	}
	out := make(ColumnList, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := strings.TrimSpace(node.Content[i].Value)
		typ := strings.TrimSpace(node.Content[i+1].Value)
		if strings.EqualFold(typ, "uuid") {
			typ = "UUID"
		}
		out = append(out, Column{Name: name, Type: typ})
	}
	*cl = out
	return nil
}

// Names returns column names in declaration order.
func (cl ColumnList) Names() []string {
	names := make([]string, len(cl))
	for i, c := range cl {
		names[i] = c.Name
	}
	return names
}

// GetPrimaryKey возвращает имя первичного ключа, по умолчанию "id".
func (m *Model) GetPrimaryKey() string {
	if m.PrimaryKey != "" {
		return m.PrimaryKey
	}
	return "id"
}

// GetColumn returns the column by name, nil if unknown.
func (m *Model) GetColumn(name string) *Column {
	if m == nil {
		return nil
	}
	for i := range m.Columns {
		if m.Columns[i].Name == name {
			return &m.Columns[i]
		}
	}
	return nil
}

// PrimaryColumn returns the primary key column. Undeclared keys are treated as int.
func (m *Model) PrimaryColumn() Column {
	pk := m.GetPrimaryKey()
	if c := m.GetColumn(pk); c != nil {
		return *c
	}
	return Column{Name: pk, Type: "int"}
}

func (m *Model) GetRelation(alias string) *ModelRelation {
	if m == nil || m.Relations == nil {
		return nil
	}
	return m.Relations[alias]
}

// RelationNames returns relation names sorted alphabetically.
func (m *Model) RelationNames() []string {
	names := make([]string, 0, len(m.Relations))
	for name := range m.Relations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SingularLabel is the key of a single item in request and response bodies.
func (m *Model) SingularLabel() string {
	if m.Label != "" {
		return m.Label
	}
	return m.Name
}

// PluralLabel is the collection result key.
func (m *Model) PluralLabel() string {
	if m.Plural != "" {
		return m.Plural
	}
	return m.SingularLabel() + "s"
}

// GetModelRef возвращает ссылку на связанную модель (после линковки).
func (r *ModelRelation) GetModelRef() *Model {
	return r._ModelRef
}

// SetModelRef устанавливает ссылку на модель (вызывается после загрузки всех моделей)
func (r *ModelRelation) SetModelRef(model *Model) {
	r._ModelRef = model
}

// IsBelongsTo reports whether the FK lives on the owning model.
func (r *ModelRelation) IsBelongsTo() bool {
	return r.Type == "belongs_to"
}
