package pagination

import (
	"reflect"
	"strings"
	"testing"
)

func render(markers []Marker) string {
	parts := make([]string, len(markers))
	for i, m := range markers {
		parts[i] = m.String()
	}
	return strings.Join(parts, ",")
}

func TestComputeWindowCompact(t *testing.T) {
	for current := 1; current <= 5; current++ {
		got := render(ComputeWindow(current, 5))
		if got != "1,2,3,4,5" {
			t.Fatalf("current %d: expected 1..5 got %s", current, got)
		}
	}
	if got := render(ComputeWindow(3, 7)); got != "1,2,3,4,5,6,7" {
		t.Fatalf("expected all seven pages got %s", got)
	}
	if got := ComputeWindow(1, 0); len(got) != 0 {
		t.Fatalf("expected no markers for zero pages got %v", got)
	}
}

func TestComputeWindowWide(t *testing.T) {
	cases := []struct {
		current, total int
		want           string
	}{
		{5, 20, "1,2,...,4,5,6,...,19,20"},
		{1, 20, "1,2,...,19,20"},
		{3, 20, "1,2,3,4,...,19,20"},
		{4, 20, "1,2,3,4,5,...,19,20"},
		{17, 20, "1,2,...,16,17,18,19,20"},
		{18, 20, "1,2,...,17,18,19,20"},
		{20, 20, "1,2,...,19,20"},
		{4, 8, "1,2,3,4,5,...,7,8"},
		{5, 8, "1,2,...,4,5,6,7,8"},
	}
	for _, tc := range cases {
		if got := render(ComputeWindow(tc.current, tc.total)); got != tc.want {
			t.Errorf("ComputeWindow(%d, %d) = %s, want %s", tc.current, tc.total, got, tc.want)
		}
	}
}

func TestComputeWindowKeepsDistinctEllipses(t *testing.T) {
	markers := ComputeWindow(10, 30)
	count := 0
	for _, m := range markers {
		if m.Ellipsis {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("expected two ellipsis markers got %d (%s)", count, render(markers))
	}
}

func TestLeadingPages(t *testing.T) {
	if got := LeadingPages(12, MaxLeadingPages); !reflect.DeepEqual(got, []int{1, 2, 3, 4, 5}) {
		t.Fatalf("expected first five pages got %v", got)
	}
	if got := LeadingPages(2, MaxLeadingPages); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("expected two pages got %v", got)
	}
	if got := LeadingPages(0, MaxLeadingPages); len(got) != 0 {
		t.Fatalf("expected no pages got %v", got)
	}
}

func TestTotalPagesAndOffset(t *testing.T) {
	cases := map[int]int{0: 0, 1: 1, 9: 1, 10: 2, 18: 2, 19: 3}
	for count, want := range cases {
		if got := TotalPages(count, PageSize); got != want {
			t.Errorf("TotalPages(%d) = %d, want %d", count, got, want)
		}
	}
	if got := Offset(3, PageSize); got != 18 {
		t.Fatalf("expected offset 18 got %d", got)
	}
	if got := Offset(0, PageSize); got != 0 {
		t.Fatalf("expected offset 0 for invalid page got %d", got)
	}
}
