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


package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/coursehound/coursehound/core"
)

// snapshot is the on-disk shape of a catalog export.
type snapshot struct {
	Institution string      `json:"institution,omitempty"`
	Courses     []courseDoc `json:"courses"`
}

// FileSource serves the replication coordinator from a JSON catalog
// snapshot, for offline seeding and tests. The snapshot is read once at
// construction.
type FileSource struct {
	docs    []courseDoc
	records []*core.Record
}

// NewFileSource loads a catalog snapshot from a JSON file.
func NewFileSource(path string) (*FileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse catalog snapshot: %w", err)
	}

	records, err := toRecords(snap.Courses)
	if err != nil {
		return nil, err
	}

	return &FileSource{docs: snap.Courses, records: records}, nil
}

// Count returns the number of courses in the snapshot.
func (s *FileSource) Count(ctx context.Context) (int, error) {
	return len(s.records), nil
}

// Page returns one page of the snapshot in file order.
func (s *FileSource) Page(ctx context.Context, page, pageSize int) ([]*core.Record, error) {
	if pageSize <= 0 {
		return nil, nil
	}
	start := page * pageSize
	if start < 0 || start >= len(s.records) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(s.records) {
		end = len(s.records)
	}
	return s.records[start:end], nil
}

// Since returns courses whose snapshot timestamp is at or after ts, up
// to limit.
func (s *FileSource) Since(ctx context.Context, ts time.Time, limit int) ([]*core.Record, error) {
	changed := make([]*core.Record, 0)
	for i, doc := range s.docs {
		if doc.UpdatedAt.Before(ts) {
			continue
		}
		changed = append(changed, s.records[i])
		if limit > 0 && len(changed) >= limit {
			break
		}
	}
	return changed, nil
}
