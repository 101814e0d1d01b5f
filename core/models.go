package core

import (
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// Key is a 64-bit content-derived identifier used for embedding cache
// entries and other hashed lookups. Course records themselves are keyed
// by their natural course code.
type Key uint64

// KeyFromText generates a deterministic Key from text using BLAKE2b hashing.
// Identical text always produces the same Key.
func KeyFromText(text string) Key {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return Key(binary.LittleEndian.Uint64(sum))
}

// CreditRange describes how many credits a course is worth. Institutions
// that award a fixed amount set Min == Max; variable-credit courses carry
// a genuine range.
type CreditRange struct {
	Min int
	Max int
}

// Credits returns a fixed-amount credit range.
func Credits(n int) CreditRange {
	return CreditRange{Min: n, Max: n}
}

// Overlaps reports whether two credit ranges share at least one value.
// A record worth 2-4 credits satisfies a 3-5 credit filter because the
// intervals overlap; containment is not required.
func (c CreditRange) Overlaps(o CreditRange) bool {
	return c.Min <= o.Max && o.Min <= c.Max
}

// FieldKind identifies the runtime type of a FieldValue.
type FieldKind int

const (
	// FieldKindBool holds a boolean attribute.
	FieldKindBool FieldKind = iota + 1
	// FieldKindInt holds a small integer attribute.
	FieldKindInt
	// FieldKindString holds a string attribute.
	FieldKindString
	// FieldKindStringList holds a list of string attributes.
	FieldKindStringList
)

// FieldValue is a tagged union for institution-specific record attributes.
// The meaning of each attribute is defined externally by a filter.Schema;
// the catalog only stores the values.
type FieldValue struct {
	Kind FieldKind
	Bool bool
	Int  int64
	Str  string
	List []string
}

// BoolValue wraps a boolean attribute.
func BoolValue(v bool) FieldValue { return FieldValue{Kind: FieldKindBool, Bool: v} }

// IntValue wraps an integer attribute.
func IntValue(v int64) FieldValue { return FieldValue{Kind: FieldKindInt, Int: v} }

// StringValue wraps a string attribute.
func StringValue(v string) FieldValue { return FieldValue{Kind: FieldKindString, Str: v} }

// StringListValue wraps a list attribute.
func StringListValue(v ...string) FieldValue {
	return FieldValue{Kind: FieldKindStringList, List: v}
}

// Text returns the canonical string form of the value, used when matching
// against filter selections expressed as strings.
func (v FieldValue) Text() string {
	switch v.Kind {
	case FieldKindBool:
		return strconv.FormatBool(v.Bool)
	case FieldKindInt:
		return strconv.FormatInt(v.Int, 10)
	case FieldKindString:
		return v.Str
	case FieldKindStringList:
		return strings.Join(v.List, ",")
	default:
		return ""
	}
}

// Contains reports whether the value matches the given string selection.
// Scalar kinds compare their canonical text form; list kinds report
// membership of any element.
func (v FieldValue) Contains(s string) bool {
	if v.Kind == FieldKindStringList {
		for _, item := range v.List {
			if item == s {
				return true
			}
		}
		return false
	}
	return v.Text() == s
}

// Record represents one course in the local catalog replica.
// The course code is the natural key: re-inserting a code overwrites the
// stored record in place (last-writer-wins by refresh timestamp).
type Record struct {
	Code          string
	Name          string
	Description   string
	Credits       CreditRange
	Prerequisites string
	AvgGPA        float64
	AvgRating     float64
	ReviewCount   int
	Vector        []float32             // Embedding for semantic search (may be empty until backfilled)
	Attributes    map[string]FieldValue // Institution-specific attributes, interpreted by a filter.Schema
	RefreshedAt   time.Time             // Set by the store when the record is persisted
}

// HasPrerequisites reports whether the record declares any prerequisite text.
func (r *Record) HasPrerequisites() bool {
	return strings.TrimSpace(r.Prerequisites) != ""
}

// ReplicaMetadata describes the state of the local replica as a whole.
type ReplicaMetadata struct {
	TotalRecords  int       // Records currently persisted locally
	ExpectedTotal int       // Total reported by the remote catalog at last load
	LastRefresh   time.Time // Last successful load or refresh
	DataVersion   uint64    // Bumped on every record write; invalidates derived indices
}

// SearchResult pairs a record with a relevance score.
type SearchResult struct {
	Record *Record
	Score  float64
}
