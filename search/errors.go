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


package search

import "errors"

var (
	// ErrCatalogRepositoryRequired is returned when a catalog repository is not provided.
	ErrCatalogRepositoryRequired = errors.New("catalog repository required")

	// ErrVectorizerRequired is returned when an embedding source is not provided.
	ErrVectorizerRequired = errors.New("vectorizer required")

	// ErrInvalidWeight is returned when a score weight is outside [0, 1].
	ErrInvalidWeight = errors.New("weight must be between 0 and 1")

	// ErrInvalidThreshold is returned when a similarity threshold is outside [0, 1].
	ErrInvalidThreshold = errors.New("threshold must be between 0 and 1")
)
