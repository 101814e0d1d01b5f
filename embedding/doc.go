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


// Package embedding provides a two-layer cache in front of the remote
// embedding service.
//
// Lookup order is in-memory map, then the persistent BadgerDB store, then
// the remote embedder; a remote result is written back to both layers.
// Cache keys are normalized (trimmed, lowercased) text hashes, and
// concurrent misses for the same key are collapsed into one remote call.
package embedding
