package model

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Разрешённые ключи для объектов
var allowedModelKeys = map[string]bool{
	"table":       true,
	"label":       true,
	"plural":      true,
	"primary_key": true,
	"order":       true,
	"columns":     true,
	"relations":   true,
}

var allowedRelationKeys = map[string]bool{
	"model": true,
	"type":  true,
	"fk":    true,
	"pk":    true,
}

// Разрешённые значения для типов колонок
var allowedColumnTypeValues = map[string]bool{
	"int":      true,
	"float":    true,
	"string":   true,
	"text":     true,
	"bool":     true,
	"date":     true,
	"datetime": true,
	"time":     true,
	"UUID":     true,
	"uuid":     true,
}

func validateYAMLNode(node *yaml.Node, context string) error {
	switch node.Kind {
	case yaml.DocumentNode:
		for _, child := range node.Content {
			if err := validateYAMLNode(child, "model"); err != nil {
				return err
			}
		}

	case yaml.MappingNode:
		switch context {
		case "model":
			return validateMapping(node, allowedModelKeys, func(key string, value *yaml.Node) error {
				switch key {
				case "columns":
					return validateYAMLNode(value, "columns")
				case "relations":
					return validateYAMLNode(value, "relations")
				}
				if value.Kind != yaml.ScalarNode {
					return fmt.Errorf("model key '%s' must be a scalar (line %d)", key, value.Line)
				}
				return nil
			})
		case "columns":
			for i := 0; i+1 < len(node.Content); i += 2 {
				name, typ := node.Content[i], node.Content[i+1]
				if typ.Kind != yaml.ScalarNode || !allowedColumnTypeValues[typ.Value] {
					return fmt.Errorf("column '%s' has invalid type '%s' (line %d)", name.Value, typ.Value, typ.Line)
				}
			}
		case "relations":
			for i := 0; i+1 < len(node.Content); i += 2 {
				if err := validateYAMLNode(node.Content[i+1], "relation"); err != nil {
					return fmt.Errorf("relation '%s': %w", node.Content[i].Value, err)
				}
			}
		case "relation":
			return validateMapping(node, allowedRelationKeys, nil)
		}

	default:
		if context != "model" {
			return fmt.Errorf("expected mapping for %s (line %d)", context, node.Line)
		}
		return fmt.Errorf("model must be a mapping (line %d)", node.Line)
	}
	return nil
}

func validateMapping(node *yaml.Node, allowed map[string]bool, each func(key string, value *yaml.Node) error) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if !allowed[key] {
			return fmt.Errorf("unknown key '%s' (line %d)", key, node.Content[i].Line)
		}
		if each != nil {
			if err := each(key, node.Content[i+1]); err != nil {
				return err
			}
		}
	}
	return nil
}
