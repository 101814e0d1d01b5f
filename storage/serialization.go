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


package storage

import (
	"time"

	"github.com/coursehound/coursehound/core"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the domain types. The FieldValue tagged
// union and the zero-time handling on timestamps need custom encoding, so
// these are written out rather than generated.

var (
	vectorSer     = ord.NewSliceSer(raw.Float32)
	stringListSer = ord.NewSliceSer(ord.String)
)

// fieldValueSer serializes the FieldValue tagged union: kind tag first,
// then only the field the tag selects.
type fieldValueSer struct{}

func (fieldValueSer) Marshal(v core.FieldValue, bs []byte) (n int) {
	n = varint.Int.Marshal(int(v.Kind), bs)
	switch v.Kind {
	case core.FieldKindBool:
		n += ord.Bool.Marshal(v.Bool, bs[n:])
	case core.FieldKindInt:
		n += varint.Int64.Marshal(v.Int, bs[n:])
	case core.FieldKindString:
		n += ord.String.Marshal(v.Str, bs[n:])
	case core.FieldKindStringList:
		n += stringListSer.Marshal(v.List, bs[n:])
	}
	return n
}

func (fieldValueSer) Unmarshal(bs []byte) (v core.FieldValue, n int, err error) {
	kind, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Kind = core.FieldKind(kind)
	var m int
	switch v.Kind {
	case core.FieldKindBool:
		v.Bool, m, err = ord.Bool.Unmarshal(bs[n:])
	case core.FieldKindInt:
		v.Int, m, err = varint.Int64.Unmarshal(bs[n:])
	case core.FieldKindString:
		v.Str, m, err = ord.String.Unmarshal(bs[n:])
	case core.FieldKindStringList:
		v.List, m, err = stringListSer.Unmarshal(bs[n:])
	default:
		err = ErrSerializationFailed
	}
	n += m
	return
}

func (s fieldValueSer) Size(v core.FieldValue) (size int) {
	size = varint.Int.Size(int(v.Kind))
	switch v.Kind {
	case core.FieldKindBool:
		size += ord.Bool.Size(v.Bool)
	case core.FieldKindInt:
		size += varint.Int64.Size(v.Int)
	case core.FieldKindString:
		size += ord.String.Size(v.Str)
	case core.FieldKindStringList:
		size += stringListSer.Size(v.List)
	}
	return size
}

func (s fieldValueSer) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

var attributesSer = ord.NewMapSer(ord.String, fieldValueSer{})

// Timestamps are stored as UnixMicro, with 0 reserved for the zero time so
// the zero value round-trips.

func marshalTime(t time.Time, bs []byte) int {
	var micros int64
	if !t.IsZero() {
		micros = t.UnixMicro()
	}
	return varint.Int64.Marshal(micros, bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || micros == 0 {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	var micros int64
	if !t.IsZero() {
		micros = t.UnixMicro()
	}
	return varint.Int64.Size(micros)
}

type recordSer struct{}

func (recordSer) Marshal(r core.Record, bs []byte) (n int) {
	n = ord.String.Marshal(r.Code, bs)
	n += ord.String.Marshal(r.Name, bs[n:])
	n += ord.String.Marshal(r.Description, bs[n:])
	n += varint.Int.Marshal(r.Credits.Min, bs[n:])
	n += varint.Int.Marshal(r.Credits.Max, bs[n:])
	n += ord.String.Marshal(r.Prerequisites, bs[n:])
	n += raw.Float64.Marshal(r.AvgGPA, bs[n:])
	n += raw.Float64.Marshal(r.AvgRating, bs[n:])
	n += varint.Int.Marshal(r.ReviewCount, bs[n:])
	n += vectorSer.Marshal(r.Vector, bs[n:])
	n += attributesSer.Marshal(r.Attributes, bs[n:])
	n += marshalTime(r.RefreshedAt, bs[n:])
	return n
}

func (recordSer) Unmarshal(bs []byte) (r core.Record, n int, err error) {
	var m int
	if r.Code, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if r.Name, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if r.Description, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if r.Credits.Min, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if r.Credits.Max, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if r.Prerequisites, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if r.AvgGPA, m, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if r.AvgRating, m, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if r.ReviewCount, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if r.Vector, m, err = vectorSer.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if r.Attributes, m, err = attributesSer.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if r.RefreshedAt, m, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += m
	return
}

func (recordSer) Size(r core.Record) (size int) {
	size = ord.String.Size(r.Code)
	size += ord.String.Size(r.Name)
	size += ord.String.Size(r.Description)
	size += varint.Int.Size(r.Credits.Min)
	size += varint.Int.Size(r.Credits.Max)
	size += ord.String.Size(r.Prerequisites)
	size += raw.Float64.Size(r.AvgGPA)
	size += raw.Float64.Size(r.AvgRating)
	size += varint.Int.Size(r.ReviewCount)
	size += vectorSer.Size(r.Vector)
	size += attributesSer.Size(r.Attributes)
	size += sizeTime(r.RefreshedAt)
	return size
}

func (s recordSer) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type metadataSer struct{}

func (metadataSer) Marshal(md core.ReplicaMetadata, bs []byte) (n int) {
	n = varint.Int.Marshal(md.TotalRecords, bs)
	n += varint.Int.Marshal(md.ExpectedTotal, bs[n:])
	n += marshalTime(md.LastRefresh, bs[n:])
	n += varint.Uint64.Marshal(md.DataVersion, bs[n:])
	return n
}

func (metadataSer) Unmarshal(bs []byte) (md core.ReplicaMetadata, n int, err error) {
	var m int
	if md.TotalRecords, n, err = varint.Int.Unmarshal(bs); err != nil {
		return
	}
	if md.ExpectedTotal, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if md.LastRefresh, m, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += m
	if md.DataVersion, m, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	return
}

func (metadataSer) Size(md core.ReplicaMetadata) (size int) {
	size = varint.Int.Size(md.TotalRecords)
	size += varint.Int.Size(md.ExpectedTotal)
	size += sizeTime(md.LastRefresh)
	size += varint.Uint64.Size(md.DataVersion)
	return size
}

func (s metadataSer) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

var (
	// RecordSer serializes core.Record values.
	RecordSer = recordSer{}
	// MetadataSer serializes core.ReplicaMetadata values.
	MetadataSer = metadataSer{}
	// FieldValueSer serializes core.FieldValue values.
	FieldValueSer = fieldValueSer{}
)

// MarshalRecord serializes a Record to bytes.
func MarshalRecord(record *core.Record) []byte {
	buf := make([]byte, RecordSer.Size(*record))
	RecordSer.Marshal(*record, buf)
	return buf
}

// UnmarshalRecord deserializes a Record from bytes.
func UnmarshalRecord(data []byte) (*core.Record, error) {
	record, _, err := RecordSer.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarshalMetadata serializes replica metadata to bytes.
func MarshalMetadata(md *core.ReplicaMetadata) []byte {
	buf := make([]byte, MetadataSer.Size(*md))
	MetadataSer.Marshal(*md, buf)
	return buf
}

// UnmarshalMetadata deserializes replica metadata from bytes.
func UnmarshalMetadata(data []byte) (*core.ReplicaMetadata, error) {
	md, _, err := MetadataSer.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &md, nil
}

// MarshalVector serializes an embedding vector to bytes.
func MarshalVector(vector []float32) []byte {
	buf := make([]byte, vectorSer.Size(vector))
	vectorSer.Marshal(vector, buf)
	return buf
}

// UnmarshalVector deserializes an embedding vector from bytes.
func UnmarshalVector(data []byte) ([]float32, error) {
	vector, _, err := vectorSer.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return vector, nil
}
