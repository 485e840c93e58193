package frontend

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"

	"lantern/internal/diag"
	"lantern/internal/lang"
	"lantern/internal/source"
)

// Invocation is the resolved build configuration of one file: what a
// compile command says once flags are interpreted.
type Invocation struct {
	Lang              lang.Options
	IncludeDirs       []string
	SystemIncludeDirs []string
	Defines           []string
	Undefines         []string
	// WorkingDir is where relative paths resolve; "" keeps the FS default.
	WorkingDir string
	MainFile   string
	// Args are the flags the invocation was parsed from.
	Args []string
}

// Clone returns a deep copy.
func (inv *Invocation) Clone() *Invocation {
	if inv == nil {
		return nil
	}
	out := *inv
	out.IncludeDirs = append([]string(nil), inv.IncludeDirs...)
	out.SystemIncludeDirs = append([]string(nil), inv.SystemIncludeDirs...)
	out.Defines = append([]string(nil), inv.Defines...)
	out.Undefines = append([]string(nil), inv.Undefines...)
	out.Args = append([]string(nil), inv.Args...)
	return &out
}

// Fingerprint digests everything that changes how a preamble is processed.
// The main file content is not part of it.
func (inv *Invocation) Fingerprint() string {
	h := sha256.New()
	write := func(tag string, vals ...string) {
		h.Write([]byte(tag))
		for _, v := range vals {
			h.Write([]byte{0})
			h.Write([]byte(v))
		}
		h.Write([]byte{'\n'})
	}
	write("lang", inv.Lang.String())
	write("I", inv.IncludeDirs...)
	write("isystem", inv.SystemIncludeDirs...)
	write("D", inv.Defines...)
	write("U", inv.Undefines...)
	write("cwd", inv.WorkingDir)
	write("main", inv.MainFile)
	return hex.EncodeToString(h.Sum(nil))
}

// compiler driver names accepted as argv[0]
var driverNames = map[string]bool{
	"cc": true, "c++": true, "gcc": true, "g++": true,
	"clang": true, "clang++": true, "clang-cl": true, "lantern": true,
}

// flags that take the next argument and are otherwise ignored
var ignoredWithValue = map[string]bool{
	"-o": true, "-MF": true, "-MT": true, "-MQ": true, "-arch": true,
	"-target": true, "-include": true, "-Xclang": true,
}

// ParseInvocation interprets compile flags. Problems with individual flags
// are returned as diagnostics and do not stop parsing; the invocation is
// usable as long as a main file was named.
func ParseInvocation(args []string) (*Invocation, []diag.Diagnostic) {
	inv := &Invocation{Args: append([]string(nil), args...)}
	store := diag.NewStore()
	eng := diag.NewEngine(nil)
	eng.SetClient(store)
	report := func(code diag.Code, arg string) {
		eng.Report(code, source.Span{}, arg).Emit()
	}

	if len(args) > 0 && !strings.HasPrefix(args[0], "-") && driverNames[filepath.Base(args[0])] {
		args = args[1:]
	}
	std := ""
	language := ""
	// value returns the argument of a flag given as "-Xv" or "-X v".
	value := func(i *int, flag string) (string, bool) {
		a := args[*i]
		if len(a) > len(flag) {
			return strings.TrimPrefix(strings.TrimPrefix(a, flag), "="), true
		}
		if *i+1 >= len(args) {
			report(diag.DrvMissingArgument, flag)
			return "", false
		}
		*i++
		return args[*i], true
	}

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "" || a == "-c" || a == "-g" || a == "-E" || a == "-S" || a == "-pipe":
		case strings.HasPrefix(a, "-isystem"):
			if v, ok := value(&i, "-isystem"); ok {
				inv.SystemIncludeDirs = append(inv.SystemIncludeDirs, v)
			}
		case strings.HasPrefix(a, "-I"):
			if v, ok := value(&i, "-I"); ok {
				inv.IncludeDirs = append(inv.IncludeDirs, v)
			}
		case strings.HasPrefix(a, "-D"):
			if v, ok := value(&i, "-D"); ok {
				inv.Defines = append(inv.Defines, v)
			}
		case strings.HasPrefix(a, "-U"):
			if v, ok := value(&i, "-U"); ok {
				inv.Undefines = append(inv.Undefines, v)
			}
		case strings.HasPrefix(a, "-std="):
			std = strings.TrimPrefix(a, "-std=")
		case strings.HasPrefix(a, "-working-directory"):
			if v, ok := value(&i, "-working-directory"); ok {
				inv.WorkingDir = v
			}
		case a == "-x":
			if v, ok := value(&i, "-x"); ok {
				language = v
			}
		case ignoredWithValue[a]:
			if i+1 < len(args) {
				i++
			} else {
				report(diag.DrvMissingArgument, a)
			}
		case strings.HasPrefix(a, "-W"), strings.HasPrefix(a, "-f"), strings.HasPrefix(a, "-O"),
			strings.HasPrefix(a, "-m"), strings.HasPrefix(a, "-g"), strings.HasPrefix(a, "--driver-mode"):
			// не влияют на анализ
		case strings.HasPrefix(a, "-"):
			report(diag.DrvUnknownArgument, a)
		default:
			if inv.MainFile == "" {
				inv.MainFile = a
			} else {
				report(diag.DrvUnknownArgument, a)
			}
		}
	}

	inv.Lang = languageFor(inv.MainFile, language)
	if std != "" {
		if o, ok := lang.FromStd(std, inv.Lang.ObjC); ok {
			inv.Lang = o
		} else {
			report(diag.DrvInvalidStd, std)
		}
	}
	if inv.MainFile != "" && !filepath.IsAbs(inv.MainFile) && inv.WorkingDir != "" {
		inv.MainFile = filepath.Join(inv.WorkingDir, inv.MainFile)
	}
	if inv.MainFile != "" {
		inv.MainFile = filepath.ToSlash(filepath.Clean(inv.MainFile))
	}
	return inv, store.Take(nil)
}

func languageFor(file, x string) lang.Options {
	switch x {
	case "c", "c-header":
		return lang.C()
	case "c++", "c++-header":
		return lang.CXX(17)
	case "objective-c":
		o := lang.C()
		o.ObjC = true
		return o
	case "objective-c++":
		o := lang.CXX(17)
		o.ObjC = true
		return o
	}
	return lang.ForFile(file)
}
