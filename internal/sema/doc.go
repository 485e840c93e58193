// Package sema holds the semantic state of one translation unit: scopes,
// name lookup, redefinition and unused-variable checks and implicit
// function template instantiation. The parser drives it; the symbols of a
// preamble can be imported into file scope so that a build which skips the
// preamble still resolves names declared there.
package sema
