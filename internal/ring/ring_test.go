package ring

import "testing"

func TestPushRejectsWhenFull(t *testing.T) {
	r := New[int](3)
	for i := 1; i <= 3; i++ {
		if !r.Push(i) {
			t.Fatalf("push %d rejected", i)
		}
	}
	if r.Push(4) {
		t.Errorf("push into full ring accepted")
	}
	if got := r.Slice(); len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("contents = %v, want [1 2 3]", got)
	}
}

func TestOverwriteDropsOldest(t *testing.T) {
	r := New[int](3)
	for i := 1; i <= 5; i++ {
		r.Overwrite(i)
	}
	got := r.Slice()
	want := []int{3, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("contents = %v, want %v", got, want)
		}
	}
}

func TestPopFrontWraps(t *testing.T) {
	r := New[string](2)
	r.Push("a")
	r.Push("b")

	if v, _ := r.PopFront(); v != "a" {
		t.Errorf("first pop = %q, want a", v)
	}
	r.Push("c")
	if v, _ := r.PopFront(); v != "b" {
		t.Errorf("second pop = %q, want b", v)
	}
	if v, _ := r.PopFront(); v != "c" {
		t.Errorf("third pop = %q, want c", v)
	}
	if _, ok := r.PopFront(); ok {
		t.Errorf("pop from empty ring succeeded")
	}
}

func TestReset(t *testing.T) {
	r := New[int](4)
	r.Push(1)
	r.Push(2)
	r.Reset()
	if r.Len() != 0 {
		t.Errorf("Len after reset = %d", r.Len())
	}
	if _, ok := r.Front(); ok {
		t.Errorf("Front after reset returned a value")
	}
}
