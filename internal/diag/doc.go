// Package diag defines the diagnostic model shared by the extractor, the policy check
// and the driver.
//
// Diagnostic is the central record:
//
//   - Severity – Info, Warning or Error.
//   - Code – numeric identifier with a stable string form (INP/EXT/POL/GEN ranges,
//     see codes.go).
//   - Message – short, actionable text.
//   - Primary – the source.Span the problem points at; source.NoSpan when there is none.
//   - Notes – secondary spans, e.g. the property carrying the other half of a conflict.
//
// Producers emit through a Reporter (usually a BagReporter) using ReportError /
// ReportWarning and chained WithNote calls. Formatting lives in internal/diagfmt;
// this package performs no IO.
package diag
