package lexer

import "testing"

func TestComputePreambleBounds(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want Bounds
	}{
		{"empty", "", Bounds{}},
		{"no directives", "int x;\n", Bounds{}},
		{"includes", "// c\n#include <a.h>\n#include \"b.h\"\nint x;\n", Bounds{Size: 35, EndsAtStartOfLine: true}},
		{"define and pragma", "#pragma once\n#define N 3\nint a[N];", Bounds{Size: 25, EndsAtStartOfLine: true}},
		{"conditional stops", "#include <a.h>\n#ifdef X\n#include <b.h>\n#endif\n", Bounds{Size: 15, EndsAtStartOfLine: true}},
		{"no trailing newline", "#include <a.h>", Bounds{Size: 14}},
		{"hash mid line", "int x; #include <a.h>\n", Bounds{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ComputePreambleBounds([]byte(tc.src)); got != tc.want {
				t.Fatalf("ComputePreambleBounds = %+v, want %+v", got, tc.want)
			}
		})
	}
}
