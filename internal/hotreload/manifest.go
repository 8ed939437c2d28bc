package hotreload

import (
	"fmt"
	"sort"

	"github.com/roach88/vex/internal/catalog"
	"github.com/roach88/vex/internal/compiler"
	"github.com/roach88/vex/internal/engine"
)

// LoadManifest reads a module manifest: any state document format whose
// top-level "modules" object maps catalog module names to their options.
//
//	modules:
//	  counter: {step: 2}
//	  todos: {}
func LoadManifest(path string) (catalog.Config, error) {
	doc, err := compiler.CompileStateFile(path)
	if err != nil {
		return nil, err
	}
	raw, ok := doc["modules"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("manifest %s: missing modules object", path)
	}

	cfg := make(catalog.Config, len(raw))
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		switch opts := raw[name].(type) {
		case nil:
			cfg[name] = nil
		case map[string]any:
			cfg[name] = opts
		default:
			return nil, fmt.Errorf("manifest %s: module %q options must be an object, got %T", path, name, opts)
		}
	}
	return cfg, nil
}

// ManifestLoader is a Loader that turns a manifest into a fragment of
// catalog modules.
func ManifestLoader(path string) (engine.Fragment, error) {
	cfg, err := LoadManifest(path)
	if err != nil {
		return engine.Fragment{}, err
	}
	return catalog.Fragment(cfg)
}
