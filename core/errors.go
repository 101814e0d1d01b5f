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

import "errors"

// Domain validation errors
var (
	// ErrInvalidRecord indicates a Record failed validation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrEmptyCode indicates the Code field is empty.
	ErrEmptyCode = errors.New("course code cannot be empty")

	// ErrEmptyName indicates the Name field is empty.
	ErrEmptyName = errors.New("course name cannot be empty")

	// ErrInvalidCreditRange indicates a credit range with Min > Max or negative bounds.
	ErrInvalidCreditRange = errors.New("invalid credit range")

	// ErrDimensionMismatch indicates two vectors of different lengths were compared.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
