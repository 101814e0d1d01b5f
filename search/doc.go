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


// Package search ranks course records against free-text queries.
//
// The Matcher type implements a tiered match pipeline:
//   - Exact and department-prefix course-code matching
//   - Fuzzy token matching over code, name and description
//   - Vector similarity against stored course embeddings
//   - Hybrid combination of keyword rank and vector score
//
// Tiers escalate: the first tier that produces a match determines the
// candidate set. Queries under two characters return the catalog sorted
// by popularity instead, a deliberate "browse" default.
package search
