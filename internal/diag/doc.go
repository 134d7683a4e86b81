// Package diag defines the diagnostic model shared by every compiler pass.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity: Info, Warning or Error (severity.go).
//   - Code: compact numeric identifier with a stable prefixed ID such as
//     GRF3001 (codes.go).
//   - Message: short, human oriented text.
//   - Location: the block, port, bus or edge the diagnostic is about. An
//     empty Location refers to the whole patch.
//   - Notes: optional secondary locations, for example the suggested adapter
//     chain of a type mismatch.
//
// # Emitting diagnostics
//
// Passes receive a Reporter and emit through ReportError / ReportWarning,
// chaining WithNote before Emit. BagReporter collects into a bounded Bag which
// supports sorting, deduplication and splitting into errors and warnings.
//
// Formatting lives in internal/diagfmt. This package does no IO.
package diag
