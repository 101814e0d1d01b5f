// Package mock provides test doubles for the ai package interfaces.
//
// MockEmbedder produces deterministic hash-based vectors by default and
// supports behavior injection through function fields, so tests can count
// calls and simulate failures without a live embedding service.
package mock
