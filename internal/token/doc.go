// Package token defines lexical token kinds for the C-family front-end.
// Invariants:
//   - Token.Text is the spelling as written (identifiers are NFC-normalized).
//   - Token.Span matches the spelling in its buffer; tokens produced by macro
//     expansion carry the span of the expansion site and the FromMacro flag.
//   - Keywords are recognized regardless of language mode; the parser decides
//     whether a C++ or Objective-C keyword is meaningful.
//   - Comments never appear in the token stream; they are handed to comment
//     handlers by the lexer.
package token
