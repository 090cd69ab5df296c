package typescript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Todo", `"Todo"`},
		{`say "hi"`, `"say \"hi\""`},
		{`back\slash`, `"back\\slash"`},
		{"line\nbreak", `"line\nbreak"`},
		{"tab\there", `"tab\there"`},
		{"bell\a", `"bell\u0007"`},
		{"emoji 🚀", `"emoji 🚀"`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Quote(tt.in), tt.in)
	}
}

func TestPropertyKey(t *testing.T) {
	assert.Equal(t, "Status", PropertyKey("Status"))
	assert.Equal(t, `"Due Date"`, PropertyKey("Due Date"))
	assert.Equal(t, `"1st"`, PropertyKey("1st"))
}

func TestEnumMemberName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Todo", "Todo"},
		{"In progress", `"In progress"`},
		{"🔥 Hot", `"🔥 Hot"`},
		{"1", "_1"},
		{"2.5", "_25"},
		{"", "_"},
		{"Infinity", "_Infinity"},
		{"NaN", "_NaN"},
		{"-Infinity", "_Infinity"},
		{"Infinite", "Infinite"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EnumMemberName(tt.in), tt.in)
	}
}

func TestIsTypeName(t *testing.T) {
	assert.True(t, IsTypeName("Tasks"))
	assert.False(t, IsTypeName("string"))
	assert.False(t, IsTypeName("My Tasks"))
	assert.False(t, IsTypeName(PropertiesUnionName))
}

func TestGenerateIndex(t *testing.T) {
	got := GenerateIndex([]ModuleExport{
		{Module: "Tasks", TypeNames: []string{"Tasks"}, ValueNames: []string{"TasksStatusEnum", "TasksPriorityEnum"},
			PropertyNames: []string{"Name", "Status", "Priority"}},
		{Module: "Projects", TypeNames: []string{"Projects"}, PropertyNames: []string{"Name", "Owner"}},
	})

	want := `/* eslint-disable */
// Code generated by notion-schema. DO NOT EDIT.
// Barrel export - re-exports all generated database types

export type { Projects } from './Projects';
export type { Tasks } from './Tasks';
export { TasksPriorityEnum, TasksStatusEnum } from './Tasks';

export type PropertiesUnion = "Name"|"Owner"|"Priority"|"Status";
`
	assert.Equal(t, want, got)
}

func TestGenerateIndex_PropertiesUnion(t *testing.T) {
	tests := []struct {
		name    string
		exports []ModuleExport
		want    string
	}{
		{"no modules", nil, ""},
		{"no properties", []ModuleExport{{Module: "Empty", TypeNames: []string{"Empty"}}},
			"export type PropertiesUnion = string;\n"},
		{"quoted names", []ModuleExport{{Module: "Docs", PropertyNames: []string{`Due "Date"`, "Name"}}},
			`export type PropertiesUnion = "Due \"Date\""|"Name";` + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateIndex(tt.exports)
			if tt.want == "" {
				assert.NotContains(t, got, PropertiesUnionName)
				return
			}
			assert.True(t, strings.HasSuffix(got, "\n"+tt.want), got)
		})
	}
}
