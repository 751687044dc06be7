package project

import (
	"fmt"
	"go/token"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"hasheq/internal/model"
)

const (
	// DefaultOutputFile is written into the package directory by `hasheq gen`.
	DefaultOutputFile = "hasheq_gen.go"
	// DefaultRuntimeImport is the import path generated code uses for helpers.
	DefaultRuntimeImport = "hasheq/runtime/hasheq"
)

// Config is the decoded hasheq.toml. The zero value is not useful; start from Default.
type Config struct {
	Markers MarkersConfig `toml:"markers"`
	Output  OutputConfig  `toml:"output"`
	Build   BuildConfig   `toml:"build"`
}

// MarkersConfig lists the annotation names recognised for each policy marker.
// Configured names are added to the built-in ones.
type MarkersConfig struct {
	Include  []string `toml:"include"`
	Exclude  []string `toml:"exclude"`
	Nullable []string `toml:"nullable"`
}

// OutputConfig controls the generated file.
type OutputConfig struct {
	File    string `toml:"file"`
	Runtime string `toml:"runtime"`
}

// BuildConfig controls the driver.
type BuildConfig struct {
	Jobs  int  `toml:"jobs"`  // 0 means GOMAXPROCS
	Cache bool `toml:"cache"` // reuse results keyed by input hash
}

// Default returns the configuration used when no hasheq.toml is found.
func Default() Config {
	return Config{
		Output: OutputConfig{
			File:    DefaultOutputFile,
			Runtime: DefaultRuntimeImport,
		},
		Build: BuildConfig{Cache: true},
	}
}

// Vocabulary builds the marker vocabulary: defaults plus configured names.
func (c Config) Vocabulary() *model.Vocabulary {
	v := model.DefaultVocabulary()
	v.Add(model.MarkerInclude, c.Markers.Include...)
	v.Add(model.MarkerExclude, c.Markers.Exclude...)
	v.Add(model.MarkerNullable, c.Markers.Nullable...)
	return v
}

// Manifest is a loaded configuration together with where it came from.
type Manifest struct {
	Path   string // empty when defaults are used
	Root   string
	Config Config
}

// Load finds hasheq.toml above startDir and decodes it. Without a file, defaults
// are returned with ok == false.
func Load(startDir string) (m *Manifest, ok bool, err error) {
	path, ok, err := FindConfig(startDir)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return &Manifest{Config: Default()}, false, nil
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}, true, nil
}

// LoadFile decodes and validates a single config file.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("output", "file") {
		if err := validateOutputFile(cfg.Output.File); err != nil {
			return Config{}, fmt.Errorf("%s: [output].file: %w", path, err)
		}
	}
	if meta.IsDefined("output", "runtime") && strings.TrimSpace(cfg.Output.Runtime) == "" {
		return Config{}, fmt.Errorf("%s: [output].runtime must not be empty", path)
	}
	if cfg.Build.Jobs < 0 {
		return Config{}, fmt.Errorf("%s: [build].jobs must be >= 0, got %d", path, cfg.Build.Jobs)
	}
	if err := cfg.Markers.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: [markers]: %w", path, err)
	}
	return cfg, nil
}

func validateOutputFile(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("must not be empty")
	case filepath.Base(name) != name:
		return fmt.Errorf("%q must be a file name, not a path", name)
	case !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go"):
		return fmt.Errorf("%q must be a non-test .go file", name)
	}
	return nil
}

// validate rejects a name bound to two markers, either among configured names
// or against the built-in ones.
func (mc MarkersConfig) validate() error {
	defaults := model.DefaultVocabulary()
	seen := make(map[string]model.Marker)
	groups := []struct {
		marker model.Marker
		names  []string
	}{
		{model.MarkerInclude, mc.Include},
		{model.MarkerExclude, mc.Exclude},
		{model.MarkerNullable, mc.Nullable},
	}
	for _, g := range groups {
		for _, name := range g.names {
			name = strings.TrimSpace(name)
			if !token.IsIdentifier(name) {
				return fmt.Errorf("%s: %q is not a valid marker name", g.marker, name)
			}
			if m, ok := defaults.Lookup(name); ok && m != g.marker {
				return fmt.Errorf("%q is already the built-in name for %s", name, m)
			}
			if m, ok := seen[name]; ok && m != g.marker {
				return fmt.Errorf("%q is listed for both %s and %s", name, m, g.marker)
			}
			seen[name] = g.marker
		}
	}
	return nil
}
