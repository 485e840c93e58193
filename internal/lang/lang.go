// Package lang holds the language options of a translation unit.
package lang

import (
	"path/filepath"
	"strings"
)

// Options is the language configuration in effect for one build.
type Options struct {
	CPlusPlus   bool
	CPlusPlus11 bool
	CPlusPlus14 bool
	CPlusPlus17 bool
	CPlusPlus20 bool
	ObjC        bool
	// Std is the -std= spelling the options came from ("c++17", "gnu11").
	Std string
}

// C returns options for C (C17).
func C() Options { return Options{Std: "c17"} }

// CXX returns options for the given C++ standard year (11, 14, 17, 20).
func CXX(year int) Options {
	if year == 98 {
		year = 3
	}
	o := Options{CPlusPlus: true, CPlusPlus11: year >= 11, CPlusPlus14: year >= 14,
		CPlusPlus17: year >= 17, CPlusPlus20: year >= 20}
	switch year {
	case 3:
		o.Std = "c++98"
	default:
		o.Std = "c++" + itoa(year)
	}
	return o
}

// FromStd parses a -std= value. ok is false for unknown standards.
func FromStd(std string, objc bool) (Options, bool) {
	s := strings.ToLower(std)
	var o Options
	switch s {
	case "c89", "c90", "c99", "c11", "c17", "c18", "c2x", "c23",
		"gnu89", "gnu99", "gnu11", "gnu17", "gnu2x":
		o = Options{}
	case "c++98", "c++03", "gnu++98":
		o = CXX(98)
	case "c++11", "c++0x", "gnu++11":
		o = CXX(11)
	case "c++14", "c++1y", "gnu++14":
		o = CXX(14)
	case "c++17", "c++1z", "gnu++17":
		o = CXX(17)
	case "c++20", "c++2a", "gnu++20", "c++23", "c++2b", "gnu++2b":
		o = CXX(20)
	default:
		return Options{}, false
	}
	o.Std = s
	o.ObjC = objc
	return o, true
}

// ForFile picks defaults from a file extension: .c and .h are C, .m is
// Objective-C, .mm is Objective-C++, everything else C++17.
func ForFile(path string) Options {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".c", ".h":
		return C()
	case ".m":
		o := C()
		o.ObjC = true
		return o
	case ".mm":
		o := CXX(17)
		o.ObjC = true
		return o
	}
	return CXX(17)
}

// Predefines returns the text of the <built-in> buffer for these options.
func (o Options) Predefines() string {
	var b strings.Builder
	b.WriteString("#define __lantern__ 1\n")
	b.WriteString("#define __STDC__ 1\n")
	if o.CPlusPlus {
		switch {
		case o.CPlusPlus20:
			b.WriteString("#define __cplusplus 202002L\n")
		case o.CPlusPlus17:
			b.WriteString("#define __cplusplus 201703L\n")
		case o.CPlusPlus14:
			b.WriteString("#define __cplusplus 201402L\n")
		case o.CPlusPlus11:
			b.WriteString("#define __cplusplus 201103L\n")
		default:
			b.WriteString("#define __cplusplus 199711L\n")
		}
	} else {
		b.WriteString("#define __STDC_VERSION__ 201710L\n")
	}
	if o.ObjC {
		b.WriteString("#define __OBJC__ 1\n")
	}
	return b.String()
}

// String is the short name used in logs.
func (o Options) String() string {
	name := "c"
	if o.CPlusPlus {
		name = "c++"
	}
	if o.ObjC {
		name = "objective-" + name
	}
	if o.Std != "" {
		name += " (" + o.Std + ")"
	}
	return name
}

func itoa(n int) string {
	if n < 10 {
		return string(rune('0' + n))
	}
	return itoa(n/10) + string(rune('0'+n%10))
}
