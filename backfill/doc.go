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


// Package backfill computes embeddings for catalog records that lack
// them.
//
// The vector tier of search falls back to hash-based substitute vectors
// for records without a real embedding; backfilling replaces those
// substitutes with embeddings from the remote collaborator. Records are
// processed in batches on a bounded worker pool, with retry on transient
// embedding failures and progress reporting for long runs.
package backfill
