package parser

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSONObject(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		key  string
		want any
	}{
		{"纯JSON", `{"skills_score": 4}`, "skills_score", float64(4)},
		{"代码块", "```json\n{\"skills_score\": 3}\n```", "skills_score", float64(3)},
		{"前后有说明文字", "Here you go:\n{\"a\": {\"b\": 1}, \"c\": \"}\"}\nThanks", "c", "}"},
		{"BOM", "\ufeff{\"x\": \"y\"}", "x", "y"},
		{"未转义引号", `{"criteria": ["Knows "Go" well"]}`, "criteria", []any{`Knows "Go" well`}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			obj, err := DecodeJSONObject(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, obj[tc.key])
		})
	}
}

func TestDecodeJSONObject_Failures(t *testing.T) {
	_, err := DecodeJSONObject("")
	assert.ErrorIs(t, err, ErrNoJSONObject)

	_, err = DecodeJSONObject("no json here")
	assert.ErrorIs(t, err, ErrNoJSONObject)

	_, err = DecodeJSONObject(`{"a": 1,`)
	assert.Error(t, err)

	_, err = DecodeJSONObject(`{"a": tru}`)
	assert.Error(t, err)
}

func TestCoerceInt(t *testing.T) {
	cases := []struct {
		in     any
		want   int
		wantOK bool
	}{
		{float64(4), 4, true},
		{3.6, 4, true},
		{"4", 4, true},
		{"4.0", 4, true},
		{"4/5", 4, true},
		{" 3 out of 5", 3, true},
		{"-2", -2, true},
		{1e20, math.MaxInt, true},
		{-1e20, math.MinInt, true},
		{"1e20", math.MaxInt, true},
		{"2e0 of 5", 2, true},
		{"score out of 5", 0, false},
		{true, 0, false},
		{nil, 0, false},
	}
	for _, tc := range cases {
		got, ok := CoerceInt(tc.in)
		assert.Equal(t, tc.wantOK, ok, "%v", tc.in)
		assert.Equal(t, tc.want, got, "%v", tc.in)
	}
}

func TestCoerceStringListAndString(t *testing.T) {
	assert.Equal(t, []string{"Go", "7"}, CoerceStringList([]any{" Go ", "", float64(7), nil}))
	assert.Equal(t, []string{"AWS", "GCP"}, CoerceStringList("AWS, GCP,"))
	assert.Equal(t, []string{}, CoerceStringList(nil))

	assert.Equal(t, "5", CoerceString(float64(5)))
	assert.Equal(t, "2.5", CoerceString(2.5))
	assert.Equal(t, "", CoerceString([]any{}))
}
