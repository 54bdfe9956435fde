// Package pandoc models the subset of the Pandoc JSON AST that the book
// filters rewrite: blocks containing inlines, with stable document order.
//
// Node types the filters never touch (tables, definition lists, figures)
// are preserved as opaque raw JSON and round-trip byte-compatible through
// Decode/Encode, so the package never needs to understand the full AST.
package pandoc
