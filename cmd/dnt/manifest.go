package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const manifestName = "dnt.toml"

type projectManifest struct {
	Path   string
	Root   string
	Config projectConfig
	meta   toml.MetaData
}

type projectConfig struct {
	Transform transformConfig `toml:"transform"`
	Cache     cacheConfig     `toml:"cache"`
}

type transformConfig struct {
	Entry          string `toml:"entry"`
	OutDir         string `toml:"out_dir"`
	KeepExtensions bool   `toml:"keep_extensions"`
	ShimPackage    string `toml:"shim_package"`
	Jobs           int    `toml:"jobs"`
}

type cacheConfig struct {
	Dir    string `toml:"dir"`
	Reload bool   `toml:"reload"`
}

// isSet reports whether key was written in the manifest, so an explicit
// `false` can be told apart from a missing key.
func (m *projectManifest) isSet(key ...string) bool {
	return m != nil && m.meta.IsDefined(key...)
}

func findManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, manifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadProjectManifest(startDir string) (*projectManifest, bool, error) {
	manifestPath, ok, err := findManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, meta, err := loadProjectConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &projectManifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
		meta:   meta,
	}, true, nil
}

func loadProjectConfig(path string) (projectConfig, toml.MetaData, error) {
	var cfg projectConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return projectConfig{}, meta, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return projectConfig{}, meta, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if !meta.IsDefined("transform") {
		return projectConfig{}, meta, fmt.Errorf("%s: missing [transform]", path)
	}
	if meta.IsDefined("transform", "entry") && strings.TrimSpace(cfg.Transform.Entry) == "" {
		return projectConfig{}, meta, fmt.Errorf("%s: [transform].entry is empty", path)
	}
	if cfg.Transform.Jobs < 0 {
		return projectConfig{}, meta, fmt.Errorf("%s: [transform].jobs must not be negative", path)
	}
	return cfg, meta, nil
}

// resolve makes a manifest-relative path absolute.
func (m *projectManifest) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Root, filepath.FromSlash(p))
}
