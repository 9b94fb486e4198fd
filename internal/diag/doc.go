// Package diag defines the diagnostic model shared by analysis, lowering and
// the textual IR reader.
//
// A Diagnostic carries a Severity, a stable numeric Code, a short message, a
// primary source.Span and optional Notes. Producers emit through the Reporter
// interface and never stop on warnings or errors: the caller decides at the
// unit boundary whether collected errors fail the unit.
//
// Rendering lives in internal/diagfmt. FormatShort in this package produces
// the stable single-line form used by golden tests and by `rfc check --format short`.
package diag
