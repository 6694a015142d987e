package provider

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// ToolInput derives a tool input schema from a Go struct type, so tool
// definitions can be declared against plain types instead of hand-written
// schema maps.
func ToolInput[T any]() (map[string]any, error) {
	schema, err := jsonschema.For[T](nil)

	if err != nil {
		return nil, fmt.Errorf("derive schema: %w", err)
	}

	data, err := json.Marshal(schema)

	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}

	var result map[string]any

	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}

	return result, nil
}
