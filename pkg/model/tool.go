package model

import "github.com/google/jsonschema-go/jsonschema"

// ToolSpec describes a tool to the model: its name, when to use it and the
// JSON Schema of its arguments object.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}
