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


// Package storage provides the storage abstraction layer for coursehound.
//
// This package defines repository interfaces that decouple storage
// implementation from the replication and search logic. It allows different
// backends (BadgerDB, in-memory, etc.) to be used interchangeably.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return these interfaces to enforce
// abstraction:
//
//	repo, err := badger.NewCatalogRepository(backend)  // returns storage.CatalogRepository
//
// # Architecture
//
//   - CatalogRepository: the local replica of the remote course catalog,
//     plus replica metadata (total count, last refresh, data version)
//   - EmbeddingRepository: the persistent layer of the embedding cache
//
// Only the replication coordinator writes to the catalog repository; search
// and filtering read from it. Serialization uses the MUS binary format with
// hand-written serializers in this package.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support concurrent
// access from multiple goroutines.
package storage
