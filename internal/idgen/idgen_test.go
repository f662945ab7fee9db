package idgen

import (
	"regexp"
	"strings"
	"testing"
)

func TestNotification(t *testing.T) {
	pattern := regexp.MustCompile(`^nt-[a-zA-Z0-9]{12}$`)
	for i := 0; i < 100; i++ {
		id, err := Notification()
		if err != nil {
			t.Fatalf("Notification() error on iteration %d: %v", i, err)
		}
		if !pattern.MatchString(id) {
			t.Fatalf("Notification() = %q, does not match %s", id, pattern)
		}
	}
}

func TestNotification_Uniqueness(t *testing.T) {
	const count = 10_000
	seen := make(map[string]struct{}, count)
	for i := 0; i < count; i++ {
		id, err := Notification()
		if err != nil {
			t.Fatalf("Notification() error on iteration %d: %v", i, err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate ID after %d generations: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestWithPrefix(t *testing.T) {
	id, err := WithPrefix("x-")
	if err != nil {
		t.Fatalf("WithPrefix: %v", err)
	}
	if !strings.HasPrefix(id, "x-") || len(id) != len("x-")+length {
		t.Errorf("WithPrefix(%q) = %q", "x-", id)
	}
}
