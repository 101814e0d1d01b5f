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

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/coursehound/coursehound/core"
)

// Relative field weights for the fuzzy tier. The course code dominates so
// a code-shaped query lands on the right course even when the descriptive
// text also mentions it.
const (
	codeBoost        = 8.0
	nameBoost        = 3.0
	descriptionBoost = 1.0
)

// fuzzyIndex is an in-memory full-text index over one snapshot of the
// catalog. It is rebuilt whenever the replica's data version moves.
type fuzzyIndex struct {
	index   bleve.Index
	version uint64
	records []*core.Record
	byCode  map[string]*core.Record
}

func buildIndexMapping() mapping.IndexMapping {
	courseMapping := bleve.NewDocumentMapping()
	courseMapping.AddFieldMappingsAt("code", bleve.NewTextFieldMapping())
	courseMapping.AddFieldMappingsAt("name", bleve.NewTextFieldMapping())
	courseMapping.AddFieldMappingsAt("description", bleve.NewTextFieldMapping())

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", courseMapping)
	return indexMapping
}

// newFuzzyIndex builds an in-memory index over the given records, tagged
// with the data version they came from.
func newFuzzyIndex(records []*core.Record, version uint64) (*fuzzyIndex, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create fuzzy index: %w", err)
	}

	batch := index.NewBatch()
	byCode := make(map[string]*core.Record, len(records))
	for _, record := range records {
		byCode[record.Code] = record
		doc := map[string]any{
			"code":        record.Code,
			"name":        record.Name,
			"description": record.Description,
		}
		if err := batch.Index(record.Code, doc); err != nil {
			index.Close()
			return nil, fmt.Errorf("index course %q: %w", record.Code, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		index.Close()
		return nil, fmt.Errorf("batch index courses: %w", err)
	}

	return &fuzzyIndex{index: index, version: version, records: records, byCode: byCode}, nil
}

// query runs a weighted fuzzy match over code, name and description and
// resolves the hits back to records, best score first.
func (f *fuzzyIndex) query(ctx context.Context, text string, maxHits int) ([]*core.Record, error) {
	codeQuery := bleve.NewMatchQuery(text)
	codeQuery.SetField("code")
	codeQuery.SetBoost(codeBoost)
	codeQuery.SetFuzziness(1)

	nameQuery := bleve.NewMatchQuery(text)
	nameQuery.SetField("name")
	nameQuery.SetBoost(nameBoost)
	nameQuery.SetFuzziness(1)

	descQuery := bleve.NewMatchQuery(text)
	descQuery.SetField("description")
	descQuery.SetBoost(descriptionBoost)

	combined := bleve.NewDisjunctionQuery(codeQuery, nameQuery, descQuery)
	request := bleve.NewSearchRequestOptions(combined, maxHits, 0, false)

	result, err := f.index.SearchInContext(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("fuzzy search: %w", err)
	}

	records := make([]*core.Record, 0, len(result.Hits))
	for _, hit := range result.Hits {
		if record, ok := f.byCode[hit.ID]; ok {
			records = append(records, record)
		}
	}
	return records, nil
}

func (f *fuzzyIndex) close() error {
	if f == nil || f.index == nil {
		return nil
	}
	return f.index.Close()
}
