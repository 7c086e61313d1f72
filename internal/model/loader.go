package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"RestQueryAPI/internal/logger"

	"gopkg.in/yaml.v3"
)

func LoadModelsFromDir(dir string) (map[string]*Model, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return nil, err
	}

	reg := make(map[string]*Model, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		m, err := ParseModel(name, data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		reg[name] = m
		logger.Info("model_loaded", map[string]any{
			"model":     name,
			"columns":   len(m.Columns),
			"relations": len(m.Relations),
		})
	}
	return reg, nil
}

// ParseModel валидирует и декодирует одну YAML-модель.
func ParseModel(name string, data []byte) (*Model, error) {
	// 1. Разбираем в yaml.Node для структурной валидации
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}
	// YAML всегда [0] - документ, [1] - root mapping
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("empty YAML")
	}
	if err := validateYAMLNode(root.Content[0], "model"); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	// 2. Теперь уже Unmarshal в модель
	var m Model
	if err := root.Decode(&m); err != nil {
		return nil, fmt.Errorf("unmarshal error: %w", err)
	}
	m.Name = name
	if m.Table == "" {
		return nil, fmt.Errorf("model '%s' has no table", name)
	}
	if len(m.Columns) == 0 {
		return nil, fmt.Errorf("model '%s' declares no columns", name)
	}
	// без pk в выборке строки нельзя ни склеить, ни отдать по id
	if m.GetColumn(m.GetPrimaryKey()) == nil {
		return nil, fmt.Errorf("model '%s': primary key '%s' is not among its columns", name, m.GetPrimaryKey())
	}
	for relName, rel := range m.Relations {
		rel.Name = relName
	}
	return &m, nil
}
