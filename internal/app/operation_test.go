package app

import (
	"errors"
	"testing"
)

func TestNewOperation(t *testing.T) {
	tests := []struct {
		name       string
		operation  string
		parameters string
	}{
		{
			name:       "with parameters",
			operation:  "DeleteFolder",
			parameters: "id=3 force=true",
		},
		{
			name:       "empty parameters",
			operation:  "ListFolders",
			parameters: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := NewOperation(tt.operation, tt.parameters)

			if op.Operation != tt.operation {
				t.Errorf("Operation = %q, want %q", op.Operation, tt.operation)
			}
			if op.Parameters != tt.parameters {
				t.Errorf("Parameters = %q, want %q", op.Parameters, tt.parameters)
			}
			if op.Status != "success" {
				t.Errorf("Status = %q, want %q", op.Status, "success")
			}
			if op.ID != 0 {
				t.Errorf("ID = %d, want 0", op.ID)
			}
		})
	}
}

func TestOperation_Persisted(t *testing.T) {
	tests := []struct {
		name string
		id   int64
		want bool
	}{
		{name: "not persisted when ID is 0", id: 0, want: false},
		{name: "persisted when ID is positive", id: 1, want: true},
		{name: "persisted when ID is large", id: 99999, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := &Operation{ID: tt.id}
			if got := op.Persisted(); got != tt.want {
				t.Errorf("Persisted() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOperation_Fail(t *testing.T) {
	op := NewOperation("DeleteFile", "")

	if err := op.Fail(nil); err != nil || op.Status != "success" {
		t.Errorf("Fail(nil) = %v, status %q", err, op.Status)
	}

	boom := errors.New("boom")
	if err := op.Fail(boom); err != boom {
		t.Errorf("Fail() = %v, want the same error", err)
	}
	if op.Status != "error" {
		t.Errorf("Status = %q, want error", op.Status)
	}
}

func TestFormatParams(t *testing.T) {
	parent := int64(7)
	var root *int64

	tests := []struct {
		name string
		kv   []any
		want string
	}{
		{name: "empty", kv: nil, want: ""},
		{name: "string and bool", kv: []any{"name", "Отчёты", "force", true}, want: `name="Отчёты" force=true`},
		{name: "folder pointer", kv: []any{"parent", &parent}, want: "parent=7"},
		{name: "nil folder pointer", kv: []any{"parent", root}, want: "parent=root"},
		{name: "odd trailing key dropped", kv: []any{"id", int64(3), "extra"}, want: "id=3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatParams(tt.kv...); got != tt.want {
				t.Errorf("formatParams() = %q, want %q", got, tt.want)
			}
		})
	}
}
