// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	"github.com/staranto/studyctl/internal/attrs"
)

func TestBuildFilters(t *testing.T) {
	tests := []struct {
		name      string
		spec      string
		delimiter string
		want      []Filter
	}{
		{
			name: "empty spec",
			spec: "",
		},
		{
			name: "exact match",
			spec: "subject=math",
			want: []Filter{{Key: "subject", Operand: "=", Target: "math"}},
		},
		{
			name: "prefix match",
			spec: "subject^phys",
			want: []Filter{{Key: "subject", Operand: "^", Target: "phys"}},
		},
		{
			name: "negated exact match",
			spec: "subject!=art",
			want: []Filter{{Key: "subject", Operand: "=", Target: "art", Negate: true}},
		},
		{
			name: "numeric greater than",
			spec: "actualTime>30",
			want: []Filter{{Key: "actualTime", Operand: ">", Target: "30"}},
		},
		{
			name: "regex",
			spec: "title/^ch[0-9]+",
			want: []Filter{{Key: "title", Operand: "/", Target: "^ch[0-9]+"}},
		},
		{
			name: "multiple filters",
			spec: "subject=math,actualTime<60",
			want: []Filter{
				{Key: "subject", Operand: "=", Target: "math"},
				{Key: "actualTime", Operand: "<", Target: "60"},
			},
		},
		{
			name: "invalid filter skipped",
			spec: "subject=math,nonsense,notes@exam",
			want: []Filter{
				{Key: "subject", Operand: "=", Target: "math"},
				{Key: "notes", Operand: "@", Target: "exam"},
			},
		},
		{
			name: "missing key skipped",
			spec: "=math",
		},
		{
			name:      "custom delimiter",
			spec:      "subject=math|notes@a,b",
			delimiter: "|",
			want: []Filter{
				{Key: "subject", Operand: "=", Target: "math"},
				{Key: "notes", Operand: "@", Target: "a,b"},
			},
		},
		{
			name: "empty target",
			spec: "notes=",
			want: []Filter{{Key: "notes", Operand: "=", Target: ""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.delimiter != "" {
				t.Setenv("STUDYCTL_FILTER_DELIM", tt.delimiter)
			}
			assert.Equal(t, tt.want, BuildFilters(tt.spec))
		})
	}
}

func TestCheckStringOperand(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		filter Filter
		want   bool
	}{
		{"exact true", "math", Filter{Operand: "=", Target: "math"}, true},
		{"exact false", "math", Filter{Operand: "=", Target: "art"}, false},
		{"negated exact", "math", Filter{Operand: "=", Target: "art", Negate: true}, true},
		{"prefix", "physics", Filter{Operand: "^", Target: "phy"}, true},
		{"prefix false", "chemistry", Filter{Operand: "^", Target: "phy"}, false},
		{"fold", "MATH", Filter{Operand: "~", Target: "math"}, true},
		{"fold is not contains", "mathematics", Filter{Operand: "~", Target: "math"}, false},
		{"contains", "exam prep", Filter{Operand: "@", Target: "exam"}, true},
		{"negated contains", "revision", Filter{Operand: "@", Target: "exam", Negate: true}, true},
		{"regex", "ch12", Filter{Operand: "/", Target: `^ch\d+$`}, true},
		{"negated regex", "intro", Filter{Operand: "/", Target: `^ch\d+$`, Negate: true}, true},
		{"invalid regex", "ch1", Filter{Operand: "/", Target: "[bad"}, false},
		{"greater than", "2025-03-02", Filter{Operand: ">", Target: "2025-03-01"}, true},
		{"less than", "2025-03-02", Filter{Operand: "<", Target: "2025-03-01"}, false},
		{"unsupported operand", "math", Filter{Operand: "?", Target: "math"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkStringOperand(tt.value, tt.filter))
		})
	}
}

func TestCheckNumericOperand(t *testing.T) {
	tests := []struct {
		name   string
		value  float64
		filter Filter
		want   bool
	}{
		{"equal", 30, Filter{Operand: "=", Target: "30"}, true},
		{"not equal", 30, Filter{Operand: "=", Target: "30", Negate: true}, false},
		{"greater", 45, Filter{Operand: ">", Target: "30"}, true},
		{"greater false", 25, Filter{Operand: ">", Target: "30"}, false},
		{"less", 25, Filter{Operand: "<", Target: "30"}, true},
		{"fractional", 30.5, Filter{Operand: ">", Target: "30"}, true},
		{"target with spaces", 30, Filter{Operand: "=", Target: " 30 "}, true},
		{"invalid target", 30, Filter{Operand: "=", Target: "thirty"}, false},
		{"unsupported operand", 30, Filter{Operand: "^", Target: "3"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkNumericOperand(tt.value, tt.filter))
		})
	}
}

func TestCheckContainsOperand(t *testing.T) {
	tags := []any{"exam", "revision"}
	meta := map[string]any{"exam": true}

	tests := []struct {
		name   string
		value  interface{}
		filter Filter
		want   bool
	}{
		{"list has", tags, Filter{Operand: "@", Target: "exam"}, true},
		{"list lacks", tags, Filter{Operand: "@", Target: "quiz"}, false},
		{"list negated lacks", tags, Filter{Operand: "@", Target: "quiz", Negate: true}, true},
		{"list negated has", tags, Filter{Operand: "@", Target: "exam", Negate: true}, false},
		{"list of numbers", []any{1.0, 2.0}, Filter{Operand: "@", Target: "2"}, true},
		{"map has key", meta, Filter{Operand: "@", Target: "exam"}, true},
		{"map lacks key", meta, Filter{Operand: "@", Target: "quiz"}, false},
		{"map negated", meta, Filter{Operand: "@", Target: "quiz", Negate: true}, true},
		{"unsupported type", 12, Filter{Operand: "@", Target: "1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkContainsOperand(tt.value, tt.filter))
		})
	}
}

func TestApplyFilters(t *testing.T) {
	doc := gjson.Parse(`{
		"id": "n1",
		"subject": "math",
		"title": "limits",
		"minutes": 45,
		"pinned": true,
		"tags": ["exam", "calculus"],
		"meta": {"source": "lecture"},
		"content": null
	}`)

	al := attrs.AttrList{
		{Key: "subject", OutputKey: "subject", Include: true},
		{Key: "title", OutputKey: "title", Include: true},
		{Key: "minutes", OutputKey: "mins", Include: true},
		{Key: "pinned", OutputKey: "pinned", Include: true},
		{Key: "tags", OutputKey: "tags", Include: true},
		{Key: "meta", OutputKey: "meta", Include: true},
		{Key: "content", OutputKey: "content", Include: true},
	}

	tests := []struct {
		name    string
		filters []Filter
		want    bool
	}{
		{"no filters", nil, true},
		{"match", []Filter{{Key: "subject", Operand: "=", Target: "math"}}, true},
		{"no match", []Filter{{Key: "subject", Operand: "=", Target: "art"}}, false},
		{"all match", []Filter{
			{Key: "subject", Operand: "=", Target: "math"},
			{Key: "title", Operand: "^", Target: "lim"},
		}, true},
		{"one fails", []Filter{
			{Key: "subject", Operand: "=", Target: "math"},
			{Key: "title", Operand: "^", Target: "deriv"},
		}, false},
		{"output key is used", []Filter{{Key: "mins", Operand: ">", Target: "30"}}, true},
		{"json key is not an output key", []Filter{{Key: "minutes", Operand: ">", Target: "90"}}, true},
		{"bool", []Filter{{Key: "pinned", Operand: "=", Target: "true"}}, true},
		{"null fails", []Filter{{Key: "content", Operand: "=", Target: "x"}}, false},
		{"list contains", []Filter{{Key: "tags", Operand: "@", Target: "calculus"}}, true},
		{"object contains key", []Filter{{Key: "meta", Operand: "@", Target: "source"}}, true},
		{"list with equals passes", []Filter{{Key: "tags", Operand: "=", Target: "exam"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, applyFilters(doc, al, tt.filters))
		})
	}
}

func TestFilterDataset(t *testing.T) {
	doc := gjson.Parse(`[
		{"subject": "math", "actualTime": 45, "notes": "limits"},
		{"subject": "art", "actualTime": 20},
		{"subject": "physics", "actualTime": 60, "notes": "exam prep"}
	]`)

	al := attrs.AttrList{
		{Key: "subject", OutputKey: "subject", Include: true},
		{Key: "actualTime", OutputKey: "mins", Include: true},
		{Key: "*", OutputKey: "*", TransformSpec: "U"},
	}

	tests := []struct {
		name string
		spec string
		want []string
	}{
		{"no filter", "", []string{"math", "art", "physics"}},
		{"numeric", "mins>30", []string{"math", "physics"}},
		{"exact", "subject=art", []string{"art"}},
		{"none", "subject=history", nil},
		{"combined", "mins>30,subject^p", []string{"physics"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterDataset(doc, al, tt.spec)
			assert.Len(t, got, len(tt.want))
			for i, want := range tt.want {
				assert.Equal(t, want, got[i]["subject"])
				assert.NotContains(t, got[i], "*")
			}
		})
	}

	rows := FilterDataset(doc, al, "subject=math")
	assert.Equal(t, 45.0, rows[0]["mins"])
}
