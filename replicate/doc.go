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


// Package replicate keeps the local catalog replica synchronized with the
// remote source of truth.
//
// A Coordinator walks one replica through its lifecycle:
//
//	EMPTY -> LOADING -> READY -> REFRESHING -> READY
//
// The initial bulk load fetches the remote total, splits the dataset into
// 1-4 sequential pages and persists them in chunks. Later refreshes fetch
// only records changed since the last refresh and merge them by course
// code (last-writer-wins). A single-flight group guarantees at most one
// load or refresh in flight per replica; concurrent callers share the
// in-flight result, and a short cooldown absorbs request storms from
// rapid repeated calls.
//
// Load failures are fatal to the attempt. Refresh failures are not: the
// coordinator logs them and keeps serving the last known-good data, since
// stale data is an acceptable degraded state but an apparently-empty
// catalog is not.
package replicate
