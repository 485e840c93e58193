package tidy

import (
	"strconv"

	"lantern/internal/diag"
	"lantern/internal/lang"
	"lantern/internal/source"
)

// Context is the per-build state shared by the checks of a build.
type Context struct {
	opts     Options
	enabled  GlobList
	asErrors GlobList

	engine      *diag.Engine
	sources     *source.FileSet
	lang        lang.Options
	currentFile string

	checkNames map[diag.Code]string
}

// NewContext parses the glob lists of opts. A malformed list disables what
// it could not parse and is logged.
func NewContext(opts Options) *Context {
	c := &Context{opts: opts, checkNames: make(map[diag.Code]string)}
	var err error
	if c.enabled, err = ParseGlobList(opts.Checks); err != nil {
		log.Warningf("Checks: %s", err)
	}
	if c.asErrors, err = ParseGlobList(opts.WarningsAsErrors); err != nil {
		log.Warningf("WarningsAsErrors: %s", err)
	}
	return c
}

func (c *Context) SetDiagnosticsEngine(e *diag.Engine) {
	c.engine = e
	c.sources = e.Sources()
}

func (c *Context) SetLangOptions(o lang.Options) { c.lang = o }
func (c *Context) SetCurrentFile(path string)    { c.currentFile = path }

func (c *Context) DiagnosticsEngine() *diag.Engine { return c.engine }
func (c *Context) Sources() *source.FileSet        { return c.sources }
func (c *Context) LangOptions() lang.Options       { return c.lang }
func (c *Context) CurrentFile() string             { return c.currentFile }
func (c *Context) Options() Options                { return c.opts }

// IsCheckEnabled reports whether the Checks list selects name.
func (c *Context) IsCheckEnabled(name string) bool { return c.enabled.Contains(name) }

// TreatAsError reports whether warnings of check name are errors.
func (c *Context) TreatAsError(name string) bool { return c.asErrors.Contains(name) }

// CheckName returns the check owning code, "" for front-end diagnostics.
func (c *Context) CheckName(code diag.Code) string {
	if c == nil {
		return ""
	}
	return c.checkNames[code]
}

// Option returns the "check.key" option or def.
func (c *Context) Option(check, key, def string) string {
	if v, ok := c.opts.CheckOptions[check+"."+key]; ok {
		return v
	}
	return def
}

// IntOption is Option parsed as an integer; bad values fall back to def.
func (c *Context) IntOption(check, key string, def int) int {
	v, ok := c.opts.CheckOptions[check+"."+key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warningf("option %s.%s: %q is not an integer", check, key, v)
		return def
	}
	return n
}

// report emits message for check at sp under a code owned by check.
func (c *Context) report(check string, sev diag.Severity, sp source.Span, message string) *diag.ReportBuilder {
	if c.engine == nil {
		return nil
	}
	code := c.engine.CustomCode(sev, message)
	c.checkNames[code] = check
	return c.engine.Report(code, sp)
}
