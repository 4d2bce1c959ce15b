// Package project locates and decodes the sierra2llvm.toml manifest.
package project

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest is a decoded sierra2llvm.toml and where it was found.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors the manifest tables.
type Config struct {
	Package PackageConfig `toml:"package"`
	Build   BuildConfig   `toml:"build"`
	Debug   DebugConfig   `toml:"debug"`
}

type PackageConfig struct {
	Name string `toml:"name"`
}

type BuildConfig struct {
	Inputs    []string `toml:"inputs"`
	OutDir    string   `toml:"out_dir"`
	DebugInfo bool     `toml:"debug_info"`
}

// DebugConfig names the compile unit recorded when debug info is on.
type DebugConfig struct {
	File      string `toml:"file"`
	Directory string `toml:"directory"`
	Producer  string `toml:"producer"`
}

// Load finds the manifest above startDir and decodes it. ok is false when
// there is no manifest.
func Load(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
	}, true, nil
}

// LoadConfig decodes one manifest file. [package].name is required and
// unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return Config{}, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return Config{}, fmt.Errorf("%s: missing [package].name", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	for i, in := range cfg.Build.Inputs {
		if strings.TrimSpace(in) == "" {
			return Config{}, fmt.Errorf("%s: [build].inputs[%d] is empty", path, i)
		}
	}
	return cfg, nil
}

// Inputs returns the [build].inputs resolved against the manifest root.
func (m *Manifest) Inputs() []string {
	out := make([]string, len(m.Config.Build.Inputs))
	for i, in := range m.Config.Build.Inputs {
		out[i] = m.resolve(in)
	}
	return out
}

// OutDir returns [build].out_dir resolved against the root, or "" if unset.
func (m *Manifest) OutDir() string {
	if strings.TrimSpace(m.Config.Build.OutDir) == "" {
		return ""
	}
	return m.resolve(m.Config.Build.OutDir)
}

func (m *Manifest) resolve(p string) string {
	p = filepath.FromSlash(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Root, p)
}
