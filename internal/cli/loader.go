package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/vex/internal/catalog"
	"github.com/roach88/vex/internal/harness"
	"github.com/roach88/vex/internal/hotreload"
)

// Error codes shared by the CLI's JSON output.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No scenario files found
	ErrCodeLoadFailed  = "E004" // Scenario or state file failed to load
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeDatabase    = "E008" // Journal open or query failed
	ErrCodeModules     = "E009" // Module selection invalid
)

// LoadMode controls how errors are handled while loading scenarios.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadError is a scenario that failed to load.
type LoadError struct {
	Code    string
	Path    string
	Message string
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
}

// LoadedScenario pairs a scenario with the file it came from.
type LoadedScenario struct {
	Path     string
	Scenario *harness.Scenario
}

// LoadScenarios loads every scenario file in paths. Directories are
// searched recursively for .yaml and .yml files.
func LoadScenarios(paths []string, mode LoadMode) ([]LoadedScenario, []error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeNotFound, Path: p, Message: "no such file or directory"}}
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		found, err := FindScenarioFiles(p, "")
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeScanError, Path: p, Message: err.Error()}}
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no scenario files found in %v", paths)}}
	}

	var (
		loaded []LoadedScenario
		errs   []error
	)
	for _, f := range files {
		s, err := harness.LoadScenario(f)
		if err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeLoadFailed, Path: f, Message: err.Error()})
			if mode == LoadModeFailFast {
				return loaded, errs
			}
			continue
		}
		loaded = append(loaded, LoadedScenario{Path: f, Scenario: s})
	}
	return loaded, errs
}

// FindScenarioFiles returns the YAML files under dir, sorted. A non-empty
// filter is a glob matched against the file name without extension.
func FindScenarioFiles(dir, filter string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// golden/ holds expected traces, not scenarios
			if path != dir && d.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	sort.Strings(files)
	return files, err
}

// ModuleFlags selects the catalog modules a command builds its store from.
type ModuleFlags struct {
	Modules  []string
	Manifest string
}

// Config resolves the flags into a catalog config. A manifest wins over
// the module list.
func (m ModuleFlags) Config() (catalog.Config, error) {
	if m.Manifest != "" {
		return hotreload.LoadManifest(m.Manifest)
	}
	if len(m.Modules) == 0 {
		return nil, fmt.Errorf("no modules selected (use --modules or --manifest)")
	}
	cfg := make(catalog.Config, len(m.Modules))
	for _, name := range m.Modules {
		cfg[name] = nil
	}
	return cfg, nil
}
