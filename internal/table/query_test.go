package table

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"

	"proposaldesk/internal/model"
)

func budgets(rows []model.Row) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r["BUDGET"]
	}
	return out
}

func TestFilterSearch_CaseInsensitiveSubstring(t *testing.T) {
	t.Parallel()

	rows := []model.Row{{"NOP": "NOP-PALU"}, {"NOP": "NOP-MKS"}}
	got := FilterSearch(rows, []string{"NOP"}, "palu")
	if len(got) != 1 || got[0]["NOP"] != "NOP-PALU" {
		t.Fatalf("unexpected result: %v", got)
	}
}

func TestFilterSearch_OnlyVisibleColumns(t *testing.T) {
	t.Parallel()

	rows := []model.Row{{"NOP": "A", "HIDDEN": "palu"}, {"NOP": "B", "PROGRAM": nil}}
	if got := FilterSearch(rows, []string{"NOP", "PROGRAM"}, "palu"); len(got) != 0 {
		t.Fatalf("hidden columns must not match: %v", got)
	}
	if got := FilterSearch(rows, []string{"NOP"}, ""); len(got) != 2 {
		t.Fatalf("empty term keeps all rows: %v", got)
	}
}

func TestSortRows_NumericAware(t *testing.T) {
	t.Parallel()

	rows := []model.Row{{"BUDGET": "10"}, {"BUDGET": "2"}}
	SortRows(rows, "BUDGET", false)
	if want := []any{"2", "10"}; !reflect.DeepEqual(budgets(rows), want) {
		t.Fatalf("asc: got %v want %v", budgets(rows), want)
	}

	SortRows(rows, "BUDGET", true)
	if want := []any{"10", "2"}; !reflect.DeepEqual(budgets(rows), want) {
		t.Fatalf("desc: got %v want %v", budgets(rows), want)
	}
}

func TestSortRows_NonFiniteValuesSortAsText(t *testing.T) {
	t.Parallel()

	rows := []model.Row{{"BUDGET": "5"}, {"BUDGET": "nan"}, {"BUDGET": "1"}, {"BUDGET": "abc"}, {"BUDGET": "Inf"}}
	SortRows(rows, "BUDGET", false)
	if want := []any{"1", "5", "abc", "Inf", "nan"}; !reflect.DeepEqual(budgets(rows), want) {
		t.Fatalf("asc: got %v want %v", budgets(rows), want)
	}
}

func TestParseNumber_RejectsNonDecimal(t *testing.T) {
	t.Parallel()

	for _, in := range []any{"NaN", "nan", "Inf", "-Infinity", "0x1p4", "1e999", "", "  ", math.NaN(), math.Inf(1)} {
		if f, ok := ParseNumber(in); ok {
			t.Fatalf("ParseNumber(%v) = %v, want not a number", in, f)
		}
	}
	cases := map[string]float64{"10": 10, " -2.5 ": -2.5, ".5": 0.5, "1e3": 1000, "+7.": 7}
	for in, want := range cases {
		if f, ok := ParseNumber(in); !ok || f != want {
			t.Fatalf("ParseNumber(%q) = %v, %v want %v", in, f, ok, want)
		}
	}
}

func TestSortRows_NullLastAndLexicographicFallback(t *testing.T) {
	t.Parallel()

	rows := []model.Row{{"BUDGET": nil}, {"BUDGET": "beta"}, {"BUDGET": "Alpha"}}
	SortRows(rows, "BUDGET", false)
	if want := []any{"Alpha", "beta", nil}; !reflect.DeepEqual(budgets(rows), want) {
		t.Fatalf("asc: got %v want %v", budgets(rows), want)
	}

	SortRows(rows, "BUDGET", true)
	if want := []any{"beta", "Alpha", nil}; !reflect.DeepEqual(budgets(rows), want) {
		t.Fatalf("desc: got %v want %v", budgets(rows), want)
	}
}

func TestApply_TabSearchSortLimit(t *testing.T) {
	t.Parallel()

	rows := []model.Row{
		{"NOP": "NOP-PALU-1", "STATUS": "APPROVED", "BUDGET": "300"},
		{"NOP": "NOP-PALU-2", "STATUS": "APPROVED", "BUDGET": "20"},
		{"NOP": "NOP-MKS-1", "STATUS": "APPROVED", "BUDGET": "5"},
		{"NOP": "NOP-PALU-3", "STATUS": "approved", "BUDGET": "1"},
		{"NOP": "NOP-PALU-4", "STATUS": "REJECTED", "BUDGET": "1"},
	}
	cols := []string{"NOP", "STATUS", "BUDGET"}

	got := Apply(rows, cols, Query{Tab: TabApproved, Search: "PALU", SortColumn: "BUDGET", Limit: 1})
	if len(got) != 1 || got[0]["NOP"] != "NOP-PALU-2" {
		t.Fatalf("unexpected result: %v", got)
	}
	if rows[0]["NOP"] != "NOP-PALU-1" {
		t.Fatalf("input must not be reordered")
	}
}

func TestParseTab(t *testing.T) {
	t.Parallel()

	cases := map[string]Tab{"": TabAll, "ALL": TabAll, " Pending ": TabPending, "rejected": TabRejected}
	for in, want := range cases {
		got, err := ParseTab(in)
		if err != nil || got != want {
			t.Fatalf("ParseTab(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseTab("archived"); err == nil {
		t.Fatalf("expected error for unknown tab")
	}
}

func TestAggregate_GroupsInFirstSeenOrder(t *testing.T) {
	t.Parallel()

	rows := []model.Row{
		{"KATEGORI": "B", "BUDGET": "10"},
		{"KATEGORI": "A", "BUDGET": "n/a"},
		{"KATEGORI": "B", "BUDGET": "2.5"},
		{"KATEGORI": nil, "BUDGET": "1"},
	}
	s := Aggregate(rows, "KATEGORI", "BUDGET")
	if !reflect.DeepEqual(s.Labels, []string{"B", "A", ""}) {
		t.Fatalf("unexpected labels: %v", s.Labels)
	}
	if !reflect.DeepEqual(s.Values, []float64{12.5, 0, 1}) {
		t.Fatalf("unexpected values: %v", s.Values)
	}
	if s.Label != "BUDGET per KATEGORI" {
		t.Fatalf("unexpected label: %s", s.Label)
	}
}

func TestAggregate_NonFiniteCountsAsZero(t *testing.T) {
	t.Parallel()

	rows := []model.Row{
		{"KATEGORI": "Retail", "BUDGET": "NaN"},
		{"KATEGORI": "Retail", "BUDGET": "5"},
		{"KATEGORI": "Corporate", "BUDGET": "Infinity"},
	}
	s := Aggregate(rows, "KATEGORI", "BUDGET")
	if !reflect.DeepEqual(s.Values, []float64{5, 0}) {
		t.Fatalf("unexpected values: %v", s.Values)
	}
	if _, err := json.Marshal(s); err != nil {
		t.Fatalf("series must be JSON encodable: %v", err)
	}
}

func TestCountByStatus(t *testing.T) {
	t.Parallel()

	rows := []model.Row{
		{"STATUS": "SUBMITTED"}, {"STATUS": "APPROVED"}, {"STATUS": "APPROVED"},
		{"STATUS": nil}, {"STATUS": "REJECTED"},
	}
	got := CountByStatus(rows)
	want := StatusCounts{All: 5, Submitted: 1, Approved: 2, Rejected: 1}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}
