package filter

import (
	"testing"

	"github.com/coursehound/coursehound/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema(t *testing.T) *Schema {
	t.Helper()
	schema, err := ParseSchema([]byte(sampleSchema))
	require.NoError(t, err)
	return schema
}

func testRecords() []*core.Record {
	return []*core.Record{
		{
			Code:    "COMP SCI 220",
			Credits: core.CreditRange{Min: 2, Max: 4},
			Attributes: map[string]core.FieldValue{
				"breadth": core.StringListValue("natural-science"),
				"honors":  core.BoolValue(false),
			},
		},
		{
			Code:          "MATH 521",
			Credits:       core.Credits(3),
			Prerequisites: "MATH 234",
			Attributes: map[string]core.FieldValue{
				"breadth": core.StringListValue("natural-science", "quantitative"),
				"honors":  core.BoolValue(true),
			},
		},
		{
			Code:    "ART 100",
			Credits: core.CreditRange{Min: 5, Max: 8},
			Attributes: map[string]core.FieldValue{
				"breadth": core.StringListValue("humanities"),
				"honors":  core.BoolValue(false),
			},
		},
	}
}

func filteredCodes(records []*core.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Code
	}
	return out
}

func TestApply_NoSelectionsPassesEverything(t *testing.T) {
	records := testRecords()
	assert.Equal(t, records, Apply(records, testSchema(t), nil))
}

func TestApply_CreditRangeUsesOverlap(t *testing.T) {
	schema := testSchema(t)
	records := testRecords()

	// [3,5] overlaps COMP SCI 220's [2,4] and MATH 521's [3,3], but also
	// ART 100's [5,8] at 5.
	got := Apply(records, schema, []Selection{
		{Key: "credits", Range: &core.CreditRange{Min: 3, Max: 5}},
	})
	assert.Equal(t, []string{"COMP SCI 220", "MATH 521", "ART 100"}, filteredCodes(got))

	// [1,2] does not overlap [3,4].
	record := &core.Record{Code: "X", Credits: core.CreditRange{Min: 3, Max: 4}}
	assert.False(t, Matches(record, schema, []Selection{
		{Key: "credits", Range: &core.CreditRange{Min: 1, Max: 2}},
	}))

	// [2,4] overlaps [4,6] at 4.
	record = &core.Record{Code: "Y", Credits: core.CreditRange{Min: 4, Max: 6}}
	assert.True(t, Matches(record, schema, []Selection{
		{Key: "credits", Range: &core.CreditRange{Min: 2, Max: 4}},
	}))
}

func TestApply_NoPrerequisites(t *testing.T) {
	got := Apply(testRecords(), testSchema(t), []Selection{{Key: "no-prereqs"}})
	assert.Equal(t, []string{"COMP SCI 220", "ART 100"}, filteredCodes(got))
}

func TestApply_MembershipIsOrWithinKey(t *testing.T) {
	// Any selected breadth value suffices.
	got := Apply(testRecords(), testSchema(t), []Selection{
		{Key: "breadth", Values: []string{"quantitative", "humanities"}},
	})
	assert.Equal(t, []string{"MATH 521", "ART 100"}, filteredCodes(got))
}

func TestApply_AndAcrossKeys(t *testing.T) {
	got := Apply(testRecords(), testSchema(t), []Selection{
		{Key: "breadth", Values: []string{"natural-science"}},
		{Key: "no-prereqs"},
	})
	assert.Equal(t, []string{"COMP SCI 220"}, filteredCodes(got))
}

func TestApply_OrderIndependence(t *testing.T) {
	schema := testSchema(t)
	records := testRecords()

	selA := Selection{Key: "breadth", Values: []string{"natural-science"}}
	selB := Selection{Key: "credits", Range: &core.CreditRange{Min: 2, Max: 3}}
	selC := Selection{Key: "honors", Values: []string{"false"}}

	first := Apply(Apply(records, schema, []Selection{selA, selB}), schema, []Selection{selC})
	second := Apply(Apply(records, schema, []Selection{selC}), schema, []Selection{selA, selB})
	assert.Equal(t, filteredCodes(first), filteredCodes(second))
}

func TestApply_EqualsOnBooleanAttribute(t *testing.T) {
	got := Apply(testRecords(), testSchema(t), []Selection{
		{Key: "honors", Values: []string{"true"}},
	})
	assert.Equal(t, []string{"MATH 521"}, filteredCodes(got))
}

func TestApply_UnknownKeyFallsBackToAttribute(t *testing.T) {
	records := []*core.Record{
		{Code: "A", Attributes: map[string]core.FieldValue{
			"level": core.StringValue("elementary"),
		}},
		{Code: "B", Attributes: map[string]core.FieldValue{
			"level": core.StringValue("advanced"),
		}},
		{Code: "C"},
	}

	got := Apply(records, testSchema(t), []Selection{
		{Key: "level", Values: []string{"advanced"}},
	})
	assert.Equal(t, []string{"B"}, filteredCodes(got))
}

func TestApply_ValueMappingTranslatesLabels(t *testing.T) {
	schema := &Schema{
		Institution: "uw-madison",
		Fields: []FieldSpec{
			{
				Key: "breadth",
				Op:  OpMembership,
				Values: map[string]string{
					"Natural Science": "natural-science",
					"Humanities":      "humanities",
				},
			},
		},
	}
	require.NoError(t, schema.Validate())

	// The display label resolves to the stored encoding; unmapped values
	// pass through as-is.
	got := Apply(testRecords(), schema, []Selection{
		{Key: "breadth", Values: []string{"Natural Science"}},
	})
	assert.Equal(t, []string{"COMP SCI 220", "MATH 521"}, filteredCodes(got))

	got = Apply(testRecords(), schema, []Selection{
		{Key: "breadth", Values: []string{"humanities"}},
	})
	assert.Equal(t, []string{"ART 100"}, filteredCodes(got))
}

func TestMatches_RecordWithoutAttributeFails(t *testing.T) {
	record := &core.Record{Code: "BARE"}
	assert.False(t, Matches(record, testSchema(t), []Selection{
		{Key: "breadth", Values: []string{"humanities"}},
	}))
}
