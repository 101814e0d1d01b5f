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


// Package filter narrows course records by schema-driven predicates.
//
// Each institution ships a Schema describing its filterable fields and
// the operation each one uses: equality, multi-select membership,
// credit-range overlap, or the no-prerequisites flag. A record passes a
// set of selections only if every active key passes (AND across keys);
// within one multi-select key, any selected value suffices (OR within).
// Keys the schema does not know fall back to a direct equality or
// membership check against the same-named record attribute.
package filter
