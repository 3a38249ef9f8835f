/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type binding interface {
	value() (string, error)
}

type unbound string

func (u unbound) value() (string, error) {
	return "", fmt.Errorf("unbound placeholder: %s", string(u))
}

type literal string

func (l literal) value() (string, error) {
	return string(l), nil
}

type jsonBinding struct {
	data any
}

func (j jsonBinding) value() (string, error) {
	b, err := json.MarshalIndent(j.data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(b), nil
}

type yamlBinding struct {
	data any
}

func (y yamlBinding) value() (string, error) {
	b, err := yaml.Marshal(y.data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return strings.TrimRight(string(b), "\n"), nil
}
