// Package filesystem provides local implementations of fsedit.Provider.
//
// Implementations:
//   - OSProvider: a directory of the local filesystem chosen through a
//     fsedit.DirectoryPicker; writes are atomic (temp file + rename)
//   - MemoryProvider: an in-memory tree for the demo workspace and tests,
//     with per-path failure injection and operation hooks
//
// MemoryProvider can be seeded from any fs.FS with LoadFS; NewDemoProvider
// seeds it from the embedded demo workspace.
//
// Both implementations are safe for concurrent use by multiple goroutines.
package filesystem
