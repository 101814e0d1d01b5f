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


package core

import "fmt"

// ValidateRecord validates a Record according to domain rules.
//
// Validation rules:
//   - Code must not be empty
//   - Name must not be empty
//   - Credit range must have 0 <= Min <= Max
//
// NOT validated (populated later):
//   - Vector (can be empty until the embedding backfill runs)
//   - RefreshedAt (set by the store on persist)
func ValidateRecord(record *Record) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if record.Code == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyCode)
	}

	if record.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyName)
	}

	if err := ValidateCreditRange(record.Credits); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	return nil
}

// ValidateCreditRange validates that a credit range is well formed.
func ValidateCreditRange(c CreditRange) error {
	if c.Min < 0 || c.Max < c.Min {
		return fmt.Errorf("%w: [%d,%d]", ErrInvalidCreditRange, c.Min, c.Max)
	}
	return nil
}
