package synapse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType_Valid(t *testing.T) {
	for _, typ := range Types {
		assert.True(t, typ.Valid(), "type %q", typ)
	}
	assert.False(t, Type("insight").Valid())
	assert.False(t, Type("").Valid())
}

func TestParseType(t *testing.T) {
	typ, err := ParseType("data_quality")
	require.NoError(t, err)
	assert.Equal(t, TypeDataQuality, typ)

	_, err = ParseType("Anomaly")
	require.Error(t, err)
}

func TestCorrection_Detail(t *testing.T) {
	tests := []struct {
		name string
		in   Correction
		want string
	}{
		{"negative", Correction{"data_divergence", -150}, "data_divergence:delta=-150"},
		{"fraction", Correction{"unclassified", 12.5}, "unclassified:delta=12.5"},
		{"zero", Correction{"scope_mismatch", 0}, "scope_mismatch:delta=0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Detail())
		})
	}
}

func TestParseCorrection_RoundTrip(t *testing.T) {
	c := Correction{Classification: "logic_divergence", Delta: -42.25}
	got, ok := ParseCorrection(c.Detail())
	require.True(t, ok)
	assert.Equal(t, c, got)
}

func TestParseDelta(t *testing.T) {
	v, ok := ParseDelta("data_divergence:delta=300 (component 2)")
	require.True(t, ok)
	assert.Equal(t, 300.0, v)

	_, ok = ParseDelta("boundary row hit")
	assert.False(t, ok)

	_, ok = ParseDelta("x:delta=abc")
	assert.False(t, ok)
}

func TestHint_DetailAndParse(t *testing.T) {
	h := Hint{Classification: "data_error", Action: "approve_adjustment"}
	assert.Equal(t, "data_error:approve_adjustment", h.Detail())

	got, ok := ParseHint(h.Detail())
	require.True(t, ok)
	assert.Equal(t, h, got)

	_, ok = ParseHint("no-colon")
	assert.False(t, ok)
}

func TestScope(t *testing.T) {
	assert.Equal(t, "run", RunScope().String())
	assert.Equal(t, "entity:E1", EntityScope("E1").String())
}

func TestSignature_StableAndNormalized(t *testing.T) {
	a := Signature("reconciliation", "data_divergence", "2")
	b := Signature("reconciliation", "data_divergence", "2")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	// Part boundaries matter.
	assert.NotEqual(t, Signature("ab", "c"), Signature("a", "bc"))

	// Composed and decomposed forms of "é" hash the same.
	assert.Equal(t, Signature("caf\u00e9"), Signature("cafe\u0301"))
}
