package schema

import (
	"fmt"
	"github.com/viant/mcpws/internal/conv"
	"math"
	"sort"
)

// Validate checks arguments against the declared schema: required fields,
// primitive types and enum membership. Unknown arguments are ignored.
func (s *ToolInputSchema) Validate(args map[string]interface{}) error {
	for _, name := range s.Required {
		value, ok := args[name]
		if !ok || value == nil {
			return fmt.Errorf("missing argument: %s", name)
		}
		if text, ok := value.(string); ok && text == "" {
			if s.typeOf(name) == "string" {
				return fmt.Errorf("missing argument: %s", name)
			}
		}
	}
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		property, ok := s.Properties[name]
		if !ok {
			continue
		}
		value := args[name]
		if value == nil {
			continue
		}
		expected, _ := property["type"].(string)
		if !matchesType(expected, value) {
			return fmt.Errorf("invalid argument: %s: expected %s, got %T", name, expected, value)
		}
		if enum, ok := property["enum"].([]interface{}); ok && len(enum) > 0 {
			if !inEnum(enum, value) {
				return fmt.Errorf("invalid argument: %s: %v is not one of %v", name, value, enum)
			}
		}
	}
	return nil
}

func (s *ToolInputSchema) typeOf(name string) string {
	if property, ok := s.Properties[name]; ok {
		kind, _ := property["type"].(string)
		return kind
	}
	return ""
}

func matchesType(expected string, value interface{}) bool {
	switch expected {
	case "", "any":
		return true
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "number":
		_, ok := conv.AsFloat(value)
		return ok
	case "integer":
		f, ok := conv.AsFloat(value)
		return ok && f == math.Trunc(f)
	case "array":
		_, ok := value.([]interface{})
		return ok
	case "object":
		_, ok := value.(map[string]interface{})
		return ok
	}
	return true
}

func inEnum(enum []interface{}, value interface{}) bool {
	for _, candidate := range enum {
		if fmt.Sprint(candidate) == fmt.Sprint(value) {
			return true
		}
	}
	return false
}
