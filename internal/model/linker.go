package model

import (
	"fmt"
	"unicode"
)

func LinkModelRelations(reg map[string]*Model) error {
	for modelName, model := range reg {
		for relName, rel := range model.Relations {
			targetModel, ok := reg[rel.Model]
			if !ok {
				return fmt.Errorf("invalid relation: model '%s' not found in '%s.%s'", rel.Model, modelName, relName)
			}
			rel._ModelRef = targetModel
			rel.SelfReferential = targetModel == model

			switch rel.Type {
			case "belongs_to":
				// FK в текущей модели, указывает на связанную
				if rel.FK == "" {
					rel.FK = relName + "_id"
				}
				if rel.PK == "" {
					rel.PK = targetModel.GetPrimaryKey()
				}
				if model.GetColumn(rel.FK) == nil {
					return fmt.Errorf("relation '%s.%s': fk column '%s' is not declared", modelName, relName, rel.FK)
				}
			case "has_one", "has_many":
				// FK в связанной модели, указывает на текущую
				if rel.FK == "" {
					rel.FK = toSnakeCase(modelName) + "_id"
				}
				if rel.PK == "" {
					rel.PK = model.GetPrimaryKey()
				}
				if targetModel.GetColumn(rel.FK) == nil {
					return fmt.Errorf("relation '%s.%s': fk column '%s' is not declared in '%s'", modelName, relName, rel.FK, rel.Model)
				}
			default:
				return fmt.Errorf("relation '%s.%s' must have valid Type (has_many, has_one, belongs_to), got '%s'", modelName, relName, rel.Type)
			}
		}
	}
	return nil
}

func toSnakeCase(s string) string {
	var result []rune
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result = append(result, '_')
		}
		result = append(result, unicode.ToLower(r))
	}
	return string(result)
}
