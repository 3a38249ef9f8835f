/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Schema renders the definition's parameters as a JSON object schema.
func (d Definition) Schema() *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type:       "object",
		Properties: jsonschema.NewProperties(),
	}
	for _, p := range d.Parameters {
		prop := &jsonschema.Schema{
			Type:        p.Type,
			Description: p.Description,
		}
		switch p.Type {
		case "array":
			items := p.Items
			if items == "" {
				items = "string"
			}
			prop.Items = &jsonschema.Schema{Type: items}
		case "object":
			prop.AdditionalProperties = jsonschema.TrueSchema
		}
		s.Properties.Set(p.Name, prop)
		if p.Required {
			s.Required = append(s.Required, p.Name)
		}
	}
	return s
}

// SchemaMap returns Schema as the plain map form SDKs accept for raw
// function parameters.
func (d Definition) SchemaMap() (map[string]any, error) {
	b, err := json.Marshal(d.Schema())
	if err != nil {
		return nil, fmt.Errorf("encoding schema for %s: %w", d.Name, err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decoding schema for %s: %w", d.Name, err)
	}
	return m, nil
}
