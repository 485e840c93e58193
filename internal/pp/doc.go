// Package pp is the preprocessor of the lantern front-end.
//
// It drives one raw lexer per buffer, handles #include/#import, #define and
// #undef (object-like and function-like macros), the conditional family and
// a few pragmas, and reports what it does to a chain of Callbacks listeners.
// The listener chain is the event stream the secondary checks and collectors
// observe; a build that reuses a preamble starts lexing the main file after
// the preamble region, so events inside that region never happen live.
//
// Buffer order of a session:
//
//	main file (enter)
//	  <built-in>       predefined macros of the language options
//	    <command-line> -D / -U from the invocation
//	  exit <built-in>  <- first point where the main file body begins
//	main file body
package pp
