package model

import (
	"fmt"
	"sort"
)

var Registry = map[string]*Model{}

// InitRegistry загружает, линкует и публикует все модели из каталога.
func InitRegistry(dir string) error {
	reg, err := LoadRegistry(dir)
	if err != nil {
		return err
	}
	Registry = reg
	return nil
}

// LoadRegistry builds a linked registry without touching the global one.
func LoadRegistry(dir string) (map[string]*Model, error) {
	reg, err := LoadModelsFromDir(dir)
	if err != nil {
		return nil, fmt.Errorf("load error: %w", err)
	}
	if err := LinkModelRelations(reg); err != nil {
		return nil, fmt.Errorf("link error: %w", err)
	}
	return reg, nil
}

// Lookup finds a model by registry name first, then by plural label.
func Lookup(reg map[string]*Model, name string) (*Model, bool) {
	if m, ok := reg[name]; ok {
		return m, true
	}
	names := make([]string, 0, len(reg))
	for n := range reg {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if reg[n].PluralLabel() == name {
			return reg[n], true
		}
	}
	return nil, false
}
