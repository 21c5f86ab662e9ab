package jsondb

import (
	"fmt"

	"github.com/invopop/jsonschema"
)

const jsonSchemaVersion = "https://json-schema.org/draft/2020-12/schema"

// JSONSchema describes a single encoded record of this shape.
func (s *Shape[T]) JSONSchema() *jsonschema.Schema {
	sch := objectSchema(s.name, s.Fields())
	sch.Version = jsonSchemaVersion
	return sch
}

// FileSchema describes a whole persisted collection file.
func (s *Shape[T]) FileSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Version: jsonSchemaVersion,
		Title:   s.name + " collection",
		Type:    "array",
		Items:   objectSchema(s.name, s.Fields()),
	}
}

func objectSchema(title string, fields []FieldInfo) *jsonschema.Schema {
	props := jsonschema.NewProperties()
	var required []string
	for _, f := range fields {
		props.Set(f.Name, kindSchema(f.Kind))
		// optional fields are written as null but may be absent on read
		if f.Kind.Variant() != VariantOptional {
			required = append(required, f.Name)
		}
	}
	return &jsonschema.Schema{
		Title:      title,
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

func kindSchema(k Descriptor) *jsonschema.Schema {
	switch k.Variant() {
	case VariantString:
		return &jsonschema.Schema{Type: "string"}
	case VariantInteger:
		return &jsonschema.Schema{Type: "integer"}
	case VariantFloat:
		return &jsonschema.Schema{Type: "number"}
	case VariantBool:
		return &jsonschema.Schema{Type: "boolean"}
	case VariantUUID:
		return &jsonschema.Schema{Type: "string", Format: "uuid"}
	case VariantTime:
		return &jsonschema.Schema{Type: "string", Format: "date-time"}
	case VariantEnum:
		return &jsonschema.Schema{Title: k.String(), Enum: k.Members()}
	case VariantOptional:
		return &jsonschema.Schema{AnyOf: []*jsonschema.Schema{kindSchema(k.Elem()), {Type: "null"}}}
	case VariantSequence:
		return &jsonschema.Schema{Type: "array", Items: kindSchema(k.Elem())}
	case VariantMap:
		return &jsonschema.Schema{Type: "object", AdditionalProperties: kindSchema(k.Elem())}
	case VariantNested:
		return objectSchema(k.String(), k.Fields())
	default:
		panic(fmt.Sprintf("unsupported kind %v", k.Variant()))
	}
}
