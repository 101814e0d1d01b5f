// Copyright 2025 Coursehound Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package filter

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// OpKind identifies how a filter key is evaluated against a record.
type OpKind int

const (
	// OpEquals compares the selected value to the record attribute.
	OpEquals OpKind = iota + 1
	// OpMembership passes when any selected value appears in the record
	// attribute (OR within the selection).
	OpMembership
	// OpRangeOverlap passes when the selected [min,max] interval overlaps
	// the record's own credit interval.
	OpRangeOverlap
	// OpNoPrerequisites passes when the record has no prerequisite text.
	OpNoPrerequisites
)

var opNames = map[OpKind]string{
	OpEquals:          "equals",
	OpMembership:      "membership",
	OpRangeOverlap:    "range-overlap",
	OpNoPrerequisites: "no-prerequisites",
}

func (k OpKind) String() string {
	if name, ok := opNames[k]; ok {
		return name
	}
	return "unknown"
}

// MarshalYAML renders the operation kind as its schema-file name.
func (k OpKind) MarshalYAML() (any, error) {
	name, ok := opNames[k]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOp, int(k))
	}
	return name, nil
}

// UnmarshalYAML parses an operation kind from its schema-file name.
func (k *OpKind) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	for kind, known := range opNames {
		if known == name {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownOp, name)
}

// FieldSpec describes one filterable dimension: the key clients select
// by, the record attribute it reads, and the operation applied.
// Values optionally maps client-facing selection labels to the stored
// attribute encoding, for institutions whose display labels differ from
// the catalog's.
type FieldSpec struct {
	Key    string            `yaml:"key"`
	Field  string            `yaml:"field,omitempty"`
	Op     OpKind            `yaml:"op"`
	Values map[string]string `yaml:"values,omitempty"`
}

// Schema is an institution's declarative description of its filterable
// fields. It is data-only and safe to load from configuration.
type Schema struct {
	Institution string      `yaml:"institution"`
	Fields      []FieldSpec `yaml:"fields"`
}

// Spec returns the field spec registered for a filter key.
func (s *Schema) Spec(key string) (FieldSpec, bool) {
	if s == nil {
		return FieldSpec{}, false
	}
	for _, spec := range s.Fields {
		if spec.Key == key {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// Validate checks that every field has a key and a known operation.
func (s *Schema) Validate() error {
	seen := make(map[string]bool, len(s.Fields))
	for _, spec := range s.Fields {
		if spec.Key == "" {
			return fmt.Errorf("%w: field with empty key", ErrInvalidSchema)
		}
		if seen[spec.Key] {
			return fmt.Errorf("%w: duplicate key %q", ErrInvalidSchema, spec.Key)
		}
		seen[spec.Key] = true
		if _, ok := opNames[spec.Op]; !ok {
			return fmt.Errorf("%w: key %q has unknown operation", ErrInvalidSchema, spec.Key)
		}
	}
	return nil
}

// ParseSchema decodes and validates a YAML schema document.
func ParseSchema(data []byte) (*Schema, error) {
	var schema Schema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parse filter schema: %w", err)
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return &schema, nil
}

// ReadSchema decodes and validates a YAML schema from a reader.
func ReadSchema(r io.Reader) (*Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read filter schema: %w", err)
	}
	return ParseSchema(data)
}

// LoadSchema reads a schema from a YAML file on disk.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load filter schema: %w", err)
	}
	return ParseSchema(data)
}

// DefaultSchema covers the filter dimensions every institution shares:
// credit hours and the no-prerequisites toggle.
func DefaultSchema() *Schema {
	return &Schema{
		Institution: "default",
		Fields: []FieldSpec{
			{Key: "credits", Op: OpRangeOverlap},
			{Key: "no-prereqs", Op: OpNoPrerequisites},
		},
	}
}
