// Package tree holds the in-memory snapshot of a granted directory.
//
// Within every children sequence directories precede files and each group is
// ordered by byte-wise name comparison. The traversal engine establishes this
// ordering with Sort; IsSorted checks it.
//
// ExtensionSet decides which files the editor session may open.
package tree
