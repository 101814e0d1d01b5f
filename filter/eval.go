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

import "github.com/coursehound/coursehound/core"

// Selection is one active filter dimension: the key, the selected
// values (any of which may match, for multi-select keys), and the
// credit interval for range filters.
type Selection struct {
	Key    string
	Values []string
	Range  *core.CreditRange
}

// Apply returns the records that pass every selection.
func Apply(records []*core.Record, schema *Schema, selections []Selection) []*core.Record {
	if len(selections) == 0 {
		return records
	}
	passed := make([]*core.Record, 0, len(records))
	for _, record := range records {
		if Matches(record, schema, selections) {
			passed = append(passed, record)
		}
	}
	return passed
}

// Matches reports whether a record passes every selection: AND across
// filter keys, OR within one multi-select key.
func Matches(record *core.Record, schema *Schema, selections []Selection) bool {
	for _, selection := range selections {
		if !matchOne(record, schema, selection) {
			return false
		}
	}
	return true
}

func matchOne(record *core.Record, schema *Schema, selection Selection) bool {
	spec, known := schema.Spec(selection.Key)
	if !known {
		// Unknown keys default to an equality/membership check against
		// the same-named record attribute.
		return matchAttribute(record, selection.Key, selection.Values)
	}

	switch spec.Op {
	case OpEquals, OpMembership:
		field := spec.Field
		if field == "" {
			field = spec.Key
		}
		return matchAttribute(record, field, translate(spec, selection.Values))
	case OpRangeOverlap:
		if selection.Range == nil {
			return true
		}
		return record.Credits.Overlaps(*selection.Range)
	case OpNoPrerequisites:
		return !record.HasPrerequisites()
	default:
		return false
	}
}

// translate rewrites client-facing selection labels through the spec's
// value mapping table. Labels without a mapping pass through unchanged.
func translate(spec FieldSpec, values []string) []string {
	if len(spec.Values) == 0 {
		return values
	}
	translated := make([]string, len(values))
	for i, value := range values {
		if stored, ok := spec.Values[value]; ok {
			translated[i] = stored
		} else {
			translated[i] = value
		}
	}
	return translated
}

// matchAttribute passes when any selected value equals or is contained
// in the named record attribute. Records lacking the attribute fail.
func matchAttribute(record *core.Record, field string, values []string) bool {
	value, ok := record.Attributes[field]
	if !ok {
		return false
	}
	if len(values) == 0 {
		return true
	}
	for _, candidate := range values {
		if value.Contains(candidate) {
			return true
		}
	}
	return false
}
