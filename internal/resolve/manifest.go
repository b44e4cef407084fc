package resolve

import (
	"encoding/json"
	"os"

	cerrors "circular/internal/core/errors"
)

// manifest is the decoded form of a package.json: a generic JSON object.
// Reading a manifest is a one-shot decode into a map, which
// encoding/json already does without needing anything fancier.
type manifest map[string]any

func readManifest(path string) (manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, cerrors.Wrap(err, cerrors.CodeMalformedManifest, malformedManifestMsg(path))
	}
	return m, nil
}

// lookup descends a MainSpec key path through the manifest. It returns
// the string value at that path and true, or false if any segment is
// absent or not a string/object as expected, or if the leaf is an
// empty string (treated as not truthy).
func (m manifest) lookup(spec MainSpec) (string, bool) {
	if len(spec) == 0 {
		return "", false
	}
	var cur any = map[string]any(m)
	for i, key := range spec {
		obj, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		val, ok := obj[key]
		if !ok {
			return "", false
		}
		if i == len(spec)-1 {
			s, ok := val.(string)
			return s, ok && s != ""
		}
		cur = val
	}
	return "", false
}
