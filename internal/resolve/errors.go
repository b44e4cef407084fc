package resolve

import "fmt"

// These are the literal per-edge error strings a Dependency Record
// carries. They are part of the data model's external contract, not
// log messages, so they are not run through slog or wrapped in any
// prefix: a packager matches on them verbatim.
const (
	// ErrUnresolvableDynamicImport marks a require() call whose
	// argument was not a string literal.
	ErrUnresolvableDynamicImport = "unresolvable dynamic import"
)

func fileNotFoundMsg(specifier string) string {
	return fmt.Sprintf("file not found: %s", specifier)
}

func malformedManifestMsg(path string) string {
	return fmt.Sprintf("malformed package manifest: %s", path)
}
