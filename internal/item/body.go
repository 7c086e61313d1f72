package item

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"RestQueryAPI/internal/model"
	"RestQueryAPI/internal/query"
)

// Field is one column assignment extracted from a request body.
type Field struct {
	Column string
	Value  any
}

// ExtractBody reads {"<singular label>": {...}} and coerces every known
// non-primary-key column to its type. Unknown keys are ignored. Fields come
// back in column declaration order.
func ExtractBody(m *model.Model, body []byte) ([]Field, error) {
	var envelope map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&envelope); err != nil {
		return nil, invalidFormat(fmt.Errorf("decode body: %w", err))
	}
	raw, ok := envelope[m.SingularLabel()]
	if !ok {
		return nil, invalidFormat(fmt.Errorf("missing %q object", m.SingularLabel()))
	}

	var attrs map[string]any
	dec = json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&attrs); err != nil || attrs == nil {
		return nil, invalidFormat(fmt.Errorf("%q must be an object", m.SingularLabel()))
	}

	var fields []Field
	for _, col := range m.Columns {
		if col.Name == m.GetPrimaryKey() {
			continue
		}
		v, ok := attrs[col.Name]
		if !ok {
			continue
		}
		value, err := coerceJSON(col, v)
		if err != nil {
			return nil, invalidFormat(err)
		}
		fields = append(fields, Field{Column: col.Name, Value: value})
	}
	if len(fields) == 0 {
		return nil, invalidFormat(errors.New("no writable columns"))
	}
	return fields, nil
}

func coerceJSON(col model.Column, v any) (any, error) {
	var text string
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		text = x
	case json.Number:
		if col.IsText() {
			return nil, fmt.Errorf("%s: expected string", col.Name)
		}
		text = x.String()
	case bool:
		if col.Type != "bool" {
			return nil, fmt.Errorf("%s: unexpected bool", col.Name)
		}
		text = strconv.FormatBool(x)
	default:
		return nil, fmt.Errorf("%s: unexpected %T", col.Name, v)
	}
	value, ok := query.Coerce(col, text)
	if !ok {
		return nil, fmt.Errorf("%s: cannot convert %q to %s", col.Name, text, col.Type)
	}
	return value, nil
}
