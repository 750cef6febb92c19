package util

import "testing"

func TestRollerRangeBounds(t *testing.T) {
	r := NewRoller(7)
	for i := 0; i < 500; i++ {
		v := r.Range(3, 7)
		if v < 3 || v > 7 {
			t.Fatalf("Range(3,7) = %d", v)
		}
	}
	if got := r.Range(5, 5); got != 5 {
		t.Fatalf("Range(5,5) = %d, want 5", got)
	}
	if got := r.Range(9, 2); got != 9 {
		t.Fatalf("inverted Range returned %d, want min", got)
	}
}

func TestRollerPercentEdges(t *testing.T) {
	r := NewRoller(1)
	for i := 0; i < 100; i++ {
		if r.Percent(0) {
			t.Fatal("0% chance succeeded")
		}
		if !r.Percent(100) {
			t.Fatal("100% chance failed")
		}
	}
}

func TestRollerPick(t *testing.T) {
	r := NewRoller(3)
	if got := r.Pick(0); got != -1 {
		t.Fatalf("Pick(0) = %d, want -1", got)
	}
	for i := 0; i < 100; i++ {
		if v := r.Pick(4); v < 0 || v >= 4 {
			t.Fatalf("Pick(4) = %d", v)
		}
	}
}

func TestSameSeedSameSequence(t *testing.T) {
	a, b := NewRoller(42), NewRoller(42)
	for i := 0; i < 20; i++ {
		if x, y := a.Range(1, 100), b.Range(1, 100); x != y {
			t.Fatalf("roll %d diverged: %d vs %d", i, x, y)
		}
	}
}
