package resolve

// MainSpec names a field to look up in a package manifest when
// resolving a directory to its main file. A MainSpec with one element
// is a plain top-level key (e.g. {"main"} for manifest["main"]); a
// MainSpec with more than one element is a key path navigated through
// nested objects (e.g. {"browser", "main"} for manifest["browser"]["main"]),
// supporting manifests that nest their entry point under a sub-object.
type MainSpec []string

// Config is the Resolver Configuration table of the module resolution
// algorithm: every knob the relative/file/directory/bare-module
// resolution steps consult.
type Config struct {
	// Extensions are probed, in order, after a candidate path when no
	// extension already matches an existing file. An empty string in
	// this list means "try the path exactly as given, no extension
	// appended" and is conventionally first.
	Extensions []string
	// Modules names the directories walked upward from a file's
	// directory toward the filesystem root when resolving a bare
	// specifier (conventionally ["node_modules"]).
	Modules []string
	// Packages names the manifest filenames probed inside a directory
	// during directory resolution, in order (conventionally
	// ["package.json"]).
	Packages []string
	// Mains lists the manifest field(s) probed for a directory's main
	// entry, in order. Only the first field present in the manifest
	// with a truthy (non-empty string) value is used; later Mains
	// entries are never consulted once one is chosen, even if the
	// chosen entry then fails to resolve to a file or directory index.
	Mains []MainSpec
	// Index is the filename probed inside a directory when no manifest
	// main field resolved anything (e.g. "index").
	Index string
}

// DefaultConfig returns the conventional Node.js resolution
// configuration: .js/.json/.node extensions (plus extension-less),
// node_modules, package.json, a "main" field, and index.* fallback.
func DefaultConfig() Config {
	return Config{
		Extensions: []string{"", ".js", ".json", ".node"},
		Modules:    []string{"node_modules"},
		Packages:   []string{"package.json"},
		Mains:      []MainSpec{{"main"}},
		Index:      "index",
	}
}
