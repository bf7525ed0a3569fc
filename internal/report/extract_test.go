package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"plain object", ` {"summary":"x"} `, `{"summary":"x"}`, true},
		{"embedded", `...blah... {"summary":"x","overallScore":5} ...trailing`, `{"summary":"x","overallScore":5}`, true},
		{"fenced", "```json\n{\"a\":{\"b\":1}}\n```", `{"a":{"b":1}}`, true},
		{"brace inside string", `note {"summary":"use {curly} braces \"}\""} end`, `{"summary":"use {curly} braces \"}\""}`, true},
		{"skips invalid candidate", `{not json} then {"summary":"y"}`, `{"summary":"y"}`, true},
		{"first of two", `{"summary":"1"} and {"summary":"2"}`, `{"summary":"1"}`, true},
		{"no braces", "no json here", "", false},
		{"unbalanced", `{"summary":"x"`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScoreClamp(t *testing.T) {
	assert.Equal(t, 0, score(gjson.Parse(`-5`)))
	assert.Equal(t, 100, score(gjson.Parse(`101`)))
	assert.Equal(t, 50, score(gjson.Parse(`49.5`)))
	assert.Equal(t, 0, score(gjson.Result{}))
}

func TestDecodeReportStringRecommendation(t *testing.T) {
	r, ok := decodeReport(`{"summary":"s","recommendations":"Only one"}`)
	assert.True(t, ok)
	assert.Equal(t, []string{"Only one"}, r.Recommendations)

	r, ok = decodeReport(`{"summary":"s"}`)
	assert.True(t, ok)
	assert.Empty(t, r.Recommendations)
	assert.NotNil(t, r.Recommendations)
}
