package catalog

import (
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"

	"github.com/roach88/vex/internal/engine"
)

// Config selects modules by name, each with its raw options as decoded
// from YAML or CUE. A nil options map means defaults.
type Config map[string]map[string]any

type factory func(opts map[string]any) (*engine.Module, error)

var factories = map[string]factory{
	"counter": build(Counter),
	"todos":   build(Todos),
	"audit":   build(Audit),
}

// build decodes raw options into O, rejecting unknown keys.
func build[O any](fn func(O) *engine.Module) factory {
	return func(raw map[string]any) (*engine.Module, error) {
		var opts O
		if len(raw) == 0 {
			return fn(opts), nil
		}
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &opts,
			ErrorUnused:      true,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(raw); err != nil {
			return nil, err
		}
		return fn(opts), nil
	}
}

// Names lists the known module names in lexical order.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Module builds the named module with options.
func Module(name string, opts map[string]any) (*engine.Module, error) {
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown module %q (known: %v)", name, Names())
	}
	m, err := f(opts)
	if err != nil {
		return nil, fmt.Errorf("module %q options: %w", name, err)
	}
	return m, nil
}

// Build returns a root module with each named module mounted under its
// name, using default options.
func Build(names ...string) (*engine.Module, error) {
	cfg := make(Config, len(names))
	for _, name := range names {
		cfg[name] = nil
	}
	return BuildConfig(cfg)
}

// BuildConfig returns a root module with every module in cfg mounted under
// its name.
func BuildConfig(cfg Config) (*engine.Module, error) {
	modules, err := cfg.modules()
	if err != nil {
		return nil, err
	}
	return &engine.Module{State: map[string]any{}, Modules: modules}, nil
}

// Fragment returns a hot-update fragment carrying cfg's modules. Modules
// already mounted keep their state; new ones are installed.
func Fragment(cfg Config) (engine.Fragment, error) {
	modules, err := cfg.modules()
	if err != nil {
		return engine.Fragment{}, err
	}
	return engine.Fragment{Modules: modules}, nil
}

func (cfg Config) modules() (map[string]*engine.Module, error) {
	modules := make(map[string]*engine.Module, len(cfg))
	names := make([]string, 0, len(cfg))
	for name := range cfg {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m, err := Module(name, cfg[name])
		if err != nil {
			return nil, err
		}
		modules[name] = m
	}
	return modules, nil
}
