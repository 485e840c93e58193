package source

import (
	"sync"
	"testing"
)

func TestInternerBasics(t *testing.T) {
	in := NewInterner()
	a := in.Intern("foo")
	b := in.Intern("foo")
	if a != b || a == NoStringID {
		t.Fatalf("Intern ids = %d, %d", a, b)
	}
	if s := in.MustLookup(a); s != "foo" {
		t.Fatalf("MustLookup = %q", s)
	}
	if _, ok := in.Lookup(StringID(99)); ok {
		t.Fatal("Lookup of unknown id succeeded")
	}
	if in.Len() != 2 {
		t.Fatalf("Len = %d", in.Len())
	}
}

func TestInternerConcurrent(t *testing.T) {
	in := NewInterner()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, s := range []string{"a", "b", "c", "d"} {
				in.Intern(s)
			}
		}()
	}
	wg.Wait()
	if in.Len() != 5 {
		t.Fatalf("Len = %d, want 5", in.Len())
	}
	if in.TotalMemory() == 0 {
		t.Fatal("TotalMemory = 0")
	}
}
