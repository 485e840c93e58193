// Package tidy runs lint-style checks alongside a build.
//
// Checks come from a Registry of stateless factories and are instantiated
// per build with a Context. A check can listen to preprocessor events
// (PPCallbacksRegistrar), match nodes of the tree after parsing
// (MatcherRegistrar), or both. Diagnostics are reported through the build's
// diagnostics engine under custom codes; the Context maps each code back to
// the name of the check that owns it.
//
// Which checks run and which of them turn warnings into errors is decided
// by clang-tidy style glob lists:
//
//	Checks:           "-*,llvm-*,readability-identifier-length"
//	WarningsAsErrors: "bugprone-*"
//
// Matchers only see the traversal scope of the tree: the declarations of
// the main file. Preprocessor listeners see the includes of a reused
// preamble only through replayed events.
package tidy
