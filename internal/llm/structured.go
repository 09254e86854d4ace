package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// StructuredSchema declares the output shape of a structured call. The
// schema is bound as a single synthetic tool the model is instructed to
// call; its arguments become the structured payload.
type StructuredSchema struct {
	// Name is the schema's type name, also used as the synthetic tool name.
	Name string
	// Description tells the model when to produce this shape.
	Description string
	// Raw is the JSON Schema for the payload.
	Raw json.RawMessage

	compiled *jsonschema.Schema
}

// MustStructuredSchema compiles a schema at package init time. Panics on a
// malformed schema, which is a programming error.
func MustStructuredSchema(name, description, raw string) *StructuredSchema {
	s, err := NewStructuredSchema(name, description, raw)
	if err != nil {
		panic(err)
	}
	return s
}

// NewStructuredSchema compiles the JSON Schema for validation.
func NewStructuredSchema(name, description, raw string) (*StructuredSchema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(raw)))
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", name, err)
	}
	compiler := jsonschema.NewCompiler()
	resource := name + ".schema.json"
	if err := compiler.AddResource(resource, doc); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	compiled, err := compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &StructuredSchema{
		Name:        name,
		Description: description,
		Raw:         json.RawMessage(raw),
		compiled:    compiled,
	}, nil
}

// validate checks data against the schema and returns it as the structured
// payload.
func (s *StructuredSchema) validate(data []byte) (json.RawMessage, error) {
	value, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: not valid JSON: %w", s.Name, err)
	}
	if err := s.compiled.Validate(value); err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name, err)
	}
	return json.RawMessage(append([]byte(nil), data...)), nil
}

// toolInfo renders the schema as the synthetic tool bound to the model.
func (s *StructuredSchema) toolInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name:        s.Name,
		Desc:        s.Description,
		ParamsOneOf: ParamsFromJSONSchema(s.Raw),
	}
}

// ParamsFromJSONSchema converts a flat object JSON Schema into Eino
// parameter infos. Nested property shapes beyond arrays of scalars collapse
// to objects, which is sufficient for the tool schemas this server accepts.
func ParamsFromJSONSchema(schemaJSON json.RawMessage) *schema.ParamsOneOf {
	var doc struct {
		Properties map[string]struct {
			Type        string `json:"type"`
			Description string `json:"description"`
			Items       *struct {
				Type string `json:"type"`
			} `json:"items"`
		} `json:"properties"`
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(schemaJSON, &doc); err != nil {
		return schema.NewParamsOneOfByParams(nil)
	}

	required := make(map[string]bool, len(doc.Required))
	for _, r := range doc.Required {
		required[r] = true
	}

	params := make(map[string]*schema.ParameterInfo, len(doc.Properties))
	for name, prop := range doc.Properties {
		info := &schema.ParameterInfo{
			Type:     dataTypeOf(prop.Type),
			Desc:     prop.Description,
			Required: required[name],
		}
		if info.Type == schema.Array {
			elemType := schema.String
			if prop.Items != nil {
				elemType = dataTypeOf(prop.Items.Type)
			}
			info.ElemInfo = &schema.ParameterInfo{Type: elemType}
		}
		params[name] = info
	}
	return schema.NewParamsOneOfByParams(params)
}

func dataTypeOf(jsonType string) schema.DataType {
	switch jsonType {
	case "integer":
		return schema.Integer
	case "number":
		return schema.Number
	case "boolean":
		return schema.Boolean
	case "array":
		return schema.Array
	case "object":
		return schema.Object
	default:
		return schema.String
	}
}
