package schema

import (
	"fmt"
	"github.com/viant/tagly/format"
	"reflect"
	"strings"
	"time"
)

// schemaForType returns a JSON schema fragment for t; items of a slice are never nullable.
func schemaForType(t reflect.Type, inSlice bool) map[string]interface{} {
	schema := make(map[string]interface{})
	if t == reflect.TypeOf(time.Time{}) {
		schema["type"] = "string"
		schema["format"] = "date-time"
		return schema
	}
	if t.Kind() == reflect.Ptr {
		schema = schemaForType(t.Elem(), inSlice)
		if !inSlice {
			schema["nullable"] = true
		}
		return schema
	}
	switch t.Kind() {
	case reflect.Bool:
		schema["type"] = "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		schema["type"] = "integer"
	case reflect.Float32, reflect.Float64:
		schema["type"] = "number"
	case reflect.String:
		schema["type"] = "string"
	case reflect.Slice, reflect.Array:
		schema["type"] = "array"
		schema["items"] = schemaForType(t.Elem(), true)
	case reflect.Map:
		schema["type"] = "object"
		schema["additionalProperties"] = schemaForType(t.Elem(), false)
	case reflect.Struct:
		schema["type"] = "object"
		properties, required := structToProperties(t)
		schema["properties"] = properties
		if len(required) > 0 {
			schema["required"] = required
		}
	default:
		schema["type"] = "string"
	}
	return schema
}

// structToProperties converts a struct type into input schema properties and required fields.
// Besides json tags, fields may carry description:"..." and enum:"a,b,c" tags.
func structToProperties(t reflect.Type) (ToolInputSchemaProperties, []string) {
	properties := make(ToolInputSchemaProperties)
	var required []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag, _ := format.Parse(field.Tag, "json", "format")
		if tag == nil {
			tag = &format.Tag{}
		}
		if tag.Ignore {
			continue
		}
		fieldName := field.Name
		if tag.Name != "" {
			fieldName = tag.Name
		}
		fieldSchema := schemaForType(field.Type, false)
		if tag.DateFormat != "" {
			fieldSchema["format"] = tag.DateFormat
		}
		if description := field.Tag.Get("description"); description != "" {
			fieldSchema["description"] = description
		}
		if enum := field.Tag.Get("enum"); enum != "" {
			var values []interface{}
			for _, value := range strings.Split(enum, ",") {
				values = append(values, strings.TrimSpace(value))
			}
			fieldSchema["enum"] = values
		}
		properties[fieldName] = fieldSchema
		if field.Type.Kind() != reflect.Ptr && !tag.Omitempty {
			required = append(required, fieldName)
		}
	}
	return properties, required
}

// Load derives the schema from a struct value or pointer.
func (s *ToolInputSchema) Load(v any) error {
	t := reflect.TypeOf(v)
	if t == nil {
		return fmt.Errorf("expected a struct type, got nil")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("expected a struct type, got %s", t.Kind())
	}
	properties, required := structToProperties(t)
	s.Properties = properties
	s.Required = required
	s.Type = "object"
	return nil
}
