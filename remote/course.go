package remote

import (
	"fmt"
	"time"

	"github.com/coursehound/coursehound/core"
)

// courseDoc is the wire shape of one course in catalog responses and
// snapshot files.
type courseDoc struct {
	Code          string         `json:"code"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	CreditsMin    int            `json:"creditsMin"`
	CreditsMax    int            `json:"creditsMax"`
	Prerequisites string         `json:"prerequisites,omitempty"`
	AvgGPA        float64        `json:"avgGpa,omitempty"`
	AvgRating     float64        `json:"avgRating,omitempty"`
	ReviewCount   int            `json:"reviewCount,omitempty"`
	Attributes    map[string]any `json:"attributes,omitempty"`
	UpdatedAt     time.Time      `json:"updatedAt,omitempty"`
}

func (d courseDoc) toRecord() (*core.Record, error) {
	record := &core.Record{
		Code:          d.Code,
		Name:          d.Name,
		Description:   d.Description,
		Credits:       core.CreditRange{Min: d.CreditsMin, Max: d.CreditsMax},
		Prerequisites: d.Prerequisites,
		AvgGPA:        d.AvgGPA,
		AvgRating:     d.AvgRating,
		ReviewCount:   d.ReviewCount,
	}

	if len(d.Attributes) > 0 {
		record.Attributes = make(map[string]core.FieldValue, len(d.Attributes))
		for name, raw := range d.Attributes {
			value, err := toFieldValue(raw)
			if err != nil {
				return nil, fmt.Errorf("course %q attribute %q: %w", d.Code, name, err)
			}
			record.Attributes[name] = value
		}
	}

	if err := core.ValidateRecord(record); err != nil {
		return nil, err
	}
	return record, nil
}

// toFieldValue maps a decoded JSON value onto the attribute union.
// JSON numbers arrive as float64 and are stored as integers; lists must
// be homogeneous strings.
func toFieldValue(raw any) (core.FieldValue, error) {
	switch v := raw.(type) {
	case bool:
		return core.BoolValue(v), nil
	case float64:
		return core.IntValue(int64(v)), nil
	case string:
		return core.StringValue(v), nil
	case []any:
		items := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return core.FieldValue{}, fmt.Errorf("%w: list element %T", ErrUnsupportedAttribute, item)
			}
			items[i] = s
		}
		return core.StringListValue(items...), nil
	default:
		return core.FieldValue{}, fmt.Errorf("%w: %T", ErrUnsupportedAttribute, raw)
	}
}

func toRecords(docs []courseDoc) ([]*core.Record, error) {
	records := make([]*core.Record, 0, len(docs))
	for _, doc := range docs {
		record, err := doc.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
