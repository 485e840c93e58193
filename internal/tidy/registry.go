package tidy

import (
	"slices"
	"strings"
	"sync"

	"lantern/internal/pp"
	"lantern/internal/source"
)

// Registry holds check factories grouped by module: the part of a check
// name before the first '-' ("llvm", "readability", ...).
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
	byModule  map[string][]string
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		byModule:  make(map[string][]string),
	}
}

// Register adds a factory. Registering a name twice replaces the factory.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.factories[name]; !dup {
		mod := ModuleOf(name)
		r.byModule[mod] = append(r.byModule[mod], name)
	}
	r.factories[name] = f
}

// Names returns every registered check, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.factories))
	for n := range r.factories {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Modules returns the module names, sorted.
func (r *Registry) Modules() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.byModule))
	for m := range r.byModule {
		out = append(out, m)
	}
	slices.Sort(out)
	return out
}

// FilterByModule returns the checks of the given modules; all when empty.
func (r *Registry) FilterByModule(modules []string) []string {
	if len(modules) == 0 {
		return r.Names()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, m := range modules {
		out = append(out, r.byModule[m]...)
	}
	slices.Sort(out)
	return out
}

// Len is the number of registered checks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.factories)
}

// CreateChecks instantiates every check enabled in ctx, in name order.
func (r *Registry) CreateChecks(ctx *Context) []Check {
	var out []Check
	for _, name := range r.Names() {
		if !ctx.IsCheckEnabled(name) {
			continue
		}
		r.mu.Lock()
		f := r.factories[name]
		r.mu.Unlock()
		out = append(out, f(name, ctx))
	}
	return out
}

// Attach wires checks into a build: unsupported checks are dropped, the
// rest register their listeners and matchers. It returns the active ones.
func Attach(checks []Check, ctx *Context, sources *source.FileSet, p *pp.Preprocessor, finder *MatchFinder) []Check {
	active := checks[:0:0]
	for _, c := range checks {
		if !c.IsLanguageVersionSupported(ctx.LangOptions()) {
			log.Debugf("skipping %s: not supported for %s", c.Name(), ctx.LangOptions())
			continue
		}
		if r, ok := c.(PPCallbacksRegistrar); ok && p != nil {
			r.RegisterPPCallbacks(sources, p)
		}
		if r, ok := c.(MatcherRegistrar); ok && finder != nil {
			r.RegisterMatchers(finder)
		}
		active = append(active, c)
	}
	return active
}

// ModuleOf returns the module part of a check name.
func ModuleOf(name string) string {
	mod, _, _ := strings.Cut(name, "-")
	return mod
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// DefaultRegistry returns the registry of bundled checks.
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() {
		r := NewRegistry()
		registerLLVM(r)
		registerPortability(r)
		registerReadability(r)
		registerBugprone(r)
		registerCppCoreGuidelines(r)
		registerModernize(r)
		defaultRegistry = r
	})
	return defaultRegistry
}
