package lang

import (
	"strings"
	"testing"
)

func TestFromStd(t *testing.T) {
	o, ok := FromStd("c++17", false)
	if !ok || !o.CPlusPlus11 || !o.CPlusPlus17 || o.CPlusPlus20 {
		t.Fatalf("c++17 = %+v", o)
	}
	o, ok = FromStd("gnu11", false)
	if !ok || o.CPlusPlus {
		t.Fatalf("gnu11 = %+v", o)
	}
	o, _ = FromStd("c++98", false)
	if o.CPlusPlus11 || !o.CPlusPlus {
		t.Fatalf("c++98 = %+v", o)
	}
	if _, ok := FromStd("c++42", false); ok {
		t.Fatal("unknown standard accepted")
	}
}

func TestForFile(t *testing.T) {
	if o := ForFile("/a/b.c"); o.CPlusPlus {
		t.Error(".c is C")
	}
	if o := ForFile("/a/b.mm"); !o.CPlusPlus || !o.ObjC {
		t.Error(".mm is Objective-C++")
	}
	if o := ForFile("/a/b.cpp"); o.Std != "c++17" {
		t.Errorf(".cpp std = %q", o.Std)
	}
}

func TestPredefines(t *testing.T) {
	if p := CXX(11).Predefines(); !strings.Contains(p, "__cplusplus 201103L") {
		t.Fatalf("predefines = %q", p)
	}
	if p := C().Predefines(); strings.Contains(p, "__cplusplus") {
		t.Fatalf("C predefines mention C++: %q", p)
	}
}
