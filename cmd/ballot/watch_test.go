package main

import (
	"testing"

	"github.com/alfredjeanlab/ballot/internal/model"
)

func TestDiffEvents(t *testing.T) {
	seen := make(map[model.EventID]int64)

	first := []model.Event{{ID: 0, TotalVotes: 0}, {ID: 1, TotalVotes: 2}}
	if got := diffEvents(first, seen); len(got) != 2 {
		t.Fatalf("first diff = %d events, want 2", len(got))
	}
	if got := diffEvents(first, seen); len(got) != 0 {
		t.Fatalf("unchanged diff = %d events, want 0", len(got))
	}

	second := []model.Event{{ID: 0, TotalVotes: 1}, {ID: 1, TotalVotes: 2}, {ID: 2}}
	got := diffEvents(second, seen)
	if len(got) != 2 || got[0].ID != 0 || got[1].ID != 2 {
		t.Fatalf("second diff = %+v, want events 0 and 2", got)
	}
	if seen[0] != 1 || seen[2] != 0 {
		t.Errorf("seen = %v", seen)
	}
}
