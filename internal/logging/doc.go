// Package logging provides concrete implementations of the fsedit.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: zerolog-backed output to stderr or any writer, console or JSON format
//   - RecordingLogger: keeps the most recent lines in memory for the TUI status line and tests
//   - NullLogger: discards all messages (useful for testing)
//
// Tee fans one message out to several loggers.
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
