// Package storage writes note files into an output directory.
package storage

import "github.com/starford/notedex/internal/document"

// Provider is the interface for note file operations. Paths are relative to
// the provider root.
type Provider interface {
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Exists reports whether a file is present at path.
	Exists(path string) (bool, error)
	// WriteNote stores d as a note file and returns the path used.
	WriteNote(d document.Document, overwrite bool) (string, error)
}
