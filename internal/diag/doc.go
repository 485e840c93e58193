// Package diag defines the diagnostic model shared by every phase of a build.
//
// # Two shapes of a diagnostic
//
//   - Info is the in-flight form: a Code, a span in the session's
//     source.FileSet, a formatted message, notes and fix-its. Producers
//     (lexer, preprocessor, parser, sema, checks) create it through
//     Engine.Report and a ReportBuilder.
//   - Diagnostic is the result form handed to callers. Locations are resolved
//     to paths and line/column (Range), so results outlive the session.
//
// # Engine and consumers
//
// Engine formats messages from the code table (codes.go) or from custom codes
// allocated at runtime for checks, counts errors and forwards every diagnostic
// to its client Consumer together with the code's default Severity.
//
// Store is the Consumer used by builds. It applies an optional LevelAdjuster
// exactly once per diagnostic, when it is emitted, drops anything adjusted to
// SevIgnored, folds SevNote diagnostics into the preceding one, and asks an
// optional FixContributor for extra fixes. Take hands the captured results
// over and tags diagnostics owned by checks with the check name.
//
// IgnoreDiagnostics silences an engine once its output has been captured.
//
// # Consumers of results
//
//   - internal/diagfmt renders Diagnostics (pretty/json/short).
//   - internal/fix applies attached Fix edits to files.
//   - internal/lsp converts them into protocol diagnostics and code actions.
package diag
