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
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/coursehound/coursehound/core"
)

const defaultTimeout = 30 * time.Second

// HTTPSource fetches the catalog from a course catalog service.
//
// Endpoints consumed:
//
//	GET {base}/courses/count            -> {"count": N}
//	GET {base}/courses?page=&pageSize=  -> {"courses": [...]}
//	GET {base}/courses/changed?since=&limit= -> {"courses": [...]}
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient sets the HTTP client used for catalog requests.
// Default is a client with a 30s timeout.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		if client != nil {
			s.client = client
		}
	}
}

// NewHTTPSource creates a catalog source against the given base URL.
func NewHTTPSource(baseURL string, opts ...HTTPOption) (*HTTPSource, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrEmptyBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	s := &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Count fetches the remote catalog's total course count.
func (s *HTTPSource) Count(ctx context.Context) (int, error) {
	var payload struct {
		Count int `json:"count"`
	}
	if err := s.getJSON(ctx, s.baseURL+"/courses/count", &payload); err != nil {
		return 0, err
	}
	return payload.Count, nil
}

// Page fetches one page of the catalog.
func (s *HTTPSource) Page(ctx context.Context, page, pageSize int) ([]*core.Record, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(pageSize))

	var payload struct {
		Courses []courseDoc `json:"courses"`
	}
	if err := s.getJSON(ctx, s.baseURL+"/courses?"+query.Encode(), &payload); err != nil {
		return nil, err
	}
	return toRecords(payload.Courses)
}

// Since fetches courses changed at or after ts, up to limit.
func (s *HTTPSource) Since(ctx context.Context, ts time.Time, limit int) ([]*core.Record, error) {
	query := url.Values{}
	query.Set("since", ts.UTC().Format(time.RFC3339))
	query.Set("limit", strconv.Itoa(limit))

	var payload struct {
		Courses []courseDoc `json:"courses"`
	}
	if err := s.getJSON(ctx, s.baseURL+"/courses/changed?"+query.Encode(), &payload); err != nil {
		return nil, err
	}
	return toRecords(payload.Courses)
}

func (s *HTTPSource) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode catalog response: %w", err)
	}
	return nil
}
