package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// LoadAPIDocument parses an OpenAPI document (JSON or YAML) and validates it.
func LoadAPIDocument(ctx context.Context, content []byte) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false

	doc, err := loader.LoadFromData(content)
	if err != nil {
		// yaml.v3 yields map[string]any, which encoding/json accepts
		var yamlData any
		if yamlErr := yaml.Unmarshal(content, &yamlData); yamlErr != nil {
			return nil, fmt.Errorf("failed to parse api document: %w", err)
		}
		jsonContent, jsonErr := json.Marshal(yamlData)
		if jsonErr != nil {
			return nil, fmt.Errorf("failed to convert YAML to JSON: %w", jsonErr)
		}
		doc, err = loader.LoadFromData(jsonContent)
		if err != nil {
			return nil, fmt.Errorf("failed to parse api document: %w", err)
		}
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid api document: %w", err)
	}
	return doc, nil
}
