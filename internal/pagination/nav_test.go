package pagination

import "testing"

func TestNavBounds(t *testing.T) {
	first := NewNav(1, 4)
	if first.PrevEnabled() {
		t.Fatal("previous must be disabled on the first page")
	}
	if page, ok := first.Prev(); ok || page != 1 {
		t.Fatalf("expected Prev to be a no-op, got %d %v", page, ok)
	}
	if page, ok := first.Next(); !ok || page != 2 {
		t.Fatalf("expected Next to move to 2, got %d %v", page, ok)
	}

	last := NewNav(4, 4)
	if last.NextEnabled() {
		t.Fatal("next must be disabled on the last page")
	}
	if page, ok := last.Next(); ok || page != 4 {
		t.Fatalf("expected Next to be a no-op, got %d %v", page, ok)
	}
}

func TestNavHiddenForSinglePage(t *testing.T) {
	for _, total := range []int{0, 1} {
		nav := NewNav(1, total)
		if nav.Visible() {
			t.Fatalf("expected hidden navigation for %d pages", total)
		}
		if len(nav.Markers()) != 0 {
			t.Fatalf("expected no markers for %d pages", total)
		}
		if nav.PrevEnabled() || nav.NextEnabled() {
			t.Fatalf("expected disabled controls for %d pages", total)
		}
	}
}

func TestNavSelect(t *testing.T) {
	nav := NewNav(5, 20)
	if page, ok := nav.Select(PageMarker(19)); !ok || page != 19 {
		t.Fatalf("expected selection of 19, got %d %v", page, ok)
	}
	if _, ok := nav.Select(EllipsisMarker()); ok {
		t.Fatal("ellipsis must not be selectable")
	}
}
