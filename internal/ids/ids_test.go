package ids

import "testing"

func TestNewKeyIsSortable(t *testing.T) {
	a := NewKey()
	b := NewKey()
	if a == b {
		t.Fatalf("expected distinct keys, got %s twice", a)
	}
	if b < a {
		t.Fatalf("expected monotonic keys, got %s before %s", a, b)
	}
}

func TestIsPublic(t *testing.T) {
	id := NewPublic()
	if !IsPublic(id) {
		t.Fatalf("fresh public id %s failed validation", id)
	}
	for _, bad := range []string{"", "42", "not-a-uuid", NewKey(), "d94195ea-7a77-4c39-9c5a"} {
		if IsPublic(bad) {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}
