package internal

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestTable_UnmarshalPreservesColumnOrder(t *testing.T) {
	payload := `[{"zeta":1,"alpha":"x","mid":null},{"zeta":2,"alpha":"y","mid":true}]`

	var table Table
	if err := json.Unmarshal([]byte(payload), &table); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}

	if got, want := table.Columns(), []string{"zeta", "alpha", "mid"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Columns() = %v, want %v", got, want)
	}
	if got := table.Cell(0, "zeta"); got != float64(1) {
		t.Errorf("Cell(0, zeta) = %v (%T), want 1", got, got)
	}
	if got := table.Cell(0, "mid"); got != nil {
		t.Errorf("Cell(0, mid) = %v, want nil", got)
	}
	if got := table.Cell(1, "mid"); got != true {
		t.Errorf("Cell(1, mid) = %v, want true", got)
	}
	if got := table.Cell(5, "zeta"); got != nil {
		t.Errorf("Cell out of range = %v, want nil", got)
	}
}

func TestTable_UnmarshalLeadingNullRow(t *testing.T) {
	var table Table
	if err := json.Unmarshal([]byte(`[null,{"a":1}]`), &table); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}

	if got, want := table.Columns(), []string{"a"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Columns() = %v, want %v", got, want)
	}
	if got := table.Cell(0, "a"); got != nil {
		t.Errorf("Cell(0, a) = %v, want nil", got)
	}
	if got := table.Cell(1, "a"); got != float64(1) {
		t.Errorf("Cell(1, a) = %v, want 1", got)
	}
}

func TestTable_Columns(t *testing.T) {
	tests := []struct {
		name  string
		table Table
		want  []string
	}{
		{name: "nil table", table: nil, want: nil},
		{name: "only null rows", table: Table{nil, nil}, want: nil},
		{name: "leading null row", table: Table{nil, NewRow("a", 1, "b", 2)}, want: []string{"a", "b"}},
		{name: "first row order", table: Table{NewRow("b", 1, "a", 2), NewRow("a", 3, "c", 4)}, want: []string{"b", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.table.Columns(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Columns() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "nil", in: nil, want: ""},
		{name: "string", in: "x", want: "x"},
		{name: "integral float", in: float64(1), want: "1"},
		{name: "fractional float", in: 2.5, want: "2.5"},
		{name: "large float", in: float64(1234567), want: "1234567"},
		{name: "int", in: 42, want: "42"},
		{name: "bool", in: false, want: "false"},
		{name: "nested value", in: []any{"a", float64(1)}, want: `["a",1]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCell(tt.in); got != tt.want {
				t.Errorf("FormatCell(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewDataset(t *testing.T) {
	ds := NewDataset("sales_2024")
	if ds.ID != "sales_2024" || ds.Name != "sales_2024" {
		t.Errorf("NewDataset() = %+v, want name defaulting to id", ds)
	}
}

func TestMessage_HasVisualization(t *testing.T) {
	if (Message{}).HasVisualization() {
		t.Error("empty message should not have a visualization")
	}
	if !(Message{VisualizationURL: "/visualizations/a.html"}).HasVisualization() {
		t.Error("message with URL should have a visualization")
	}
	if !(Message{VisualizationHTML: "<div></div>"}).HasVisualization() {
		t.Error("message with inline markup should have a visualization")
	}
}
