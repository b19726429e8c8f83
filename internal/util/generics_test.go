package util

import (
	"reflect"
	"testing"
)

func TestContains(t *testing.T) {
	fruits := []string{"apple", "banana", "cherry"}
	if !Contains(fruits, "banana") {
		t.Error("Expected Contains to find 'banana'")
	}
	if Contains(fruits, "orange") {
		t.Error("Expected Contains to not find 'orange'")
	}
}

func TestFilter(t *testing.T) {
	evens := Filter([]int{1, 2, 3, 4, 5, 6}, func(i int) bool { return i%2 == 0 })

	if !reflect.DeepEqual(evens, []int{2, 4, 6}) {
		t.Errorf("Filter() = %v, want [2 4 6]", evens)
	}
	if got := Filter([]int{1, 3}, func(i int) bool { return i%2 == 0 }); got != nil {
		t.Errorf("Filter() with no match = %v, want nil", got)
	}
}

func TestFindFirst(t *testing.T) {
	got, ok := FindFirst([]string{"a", "bb", "cc"}, func(s string) bool { return len(s) == 2 })
	if !ok || got != "bb" {
		t.Errorf("FindFirst() = (%q, %v), want (\"bb\", true)", got, ok)
	}

	_, ok = FindFirst([]string{"a"}, func(s string) bool { return len(s) == 3 })
	if ok {
		t.Error("FindFirst() should report no match")
	}
}

func TestGroupOrdered(t *testing.T) {
	type rec struct {
		name string
		id   int
	}
	input := []rec{
		{"GitHub", 1},
		{"Mail", 2},
		{"GitHub", 3},
		{"Bank", 4},
		{"Mail", 5},
	}

	keys, groups := GroupOrdered(input, func(r rec) string { return r.name })

	wantKeys := []string{"GitHub", "Mail", "Bank"}
	if !reflect.DeepEqual(keys, wantKeys) {
		t.Errorf("keys = %v, want %v", keys, wantKeys)
	}

	wantGitHub := []rec{{"GitHub", 1}, {"GitHub", 3}}
	if !reflect.DeepEqual(groups["GitHub"], wantGitHub) {
		t.Errorf("groups[GitHub] = %v, want %v", groups["GitHub"], wantGitHub)
	}
	if len(groups["Bank"]) != 1 {
		t.Errorf("groups[Bank] has %d entries, want 1", len(groups["Bank"]))
	}
}
