// Package packs loads YAML pattern packs and merges them with the built-in
// defaults. A pack file whose name starts with an underscore is present but
// disabled.
package packs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/qualitygate/qualitygate/internal/pattern"
)

// Pack is one YAML pattern pack.
type Pack struct {
	Name        string               `yaml:"name"`
	Description string               `yaml:"description"`
	PackVersion string               `yaml:"version"`
	Author      string               `yaml:"author"`
	Patterns    []pattern.Definition `yaml:"patterns"`
}

// Info is a summary of a pack for listing.
type Info struct {
	Name         string
	Description  string
	Version      string
	Author       string
	Enabled      bool
	Path         string
	PatternCount int
}

// LoadFile parses a single pack.
func LoadFile(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var pack Pack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("failed to parse pack %s: %w", path, err)
	}
	return &pack, nil
}

// LoadDir reads every .yaml file in dir and appends enabled packs' patterns
// after the base definitions. Pattern ids from later packs do not override
// earlier ones; duplicates are dropped by the store at load time. A missing
// directory is not an error; the base set stands alone.
func LoadDir(dir string, base []pattern.Definition) ([]pattern.Definition, []Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil, nil
		}
		return nil, nil, err
	}

	defs := make([]pattern.Definition, len(base))
	copy(defs, base)

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		baseName := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		enabled := !strings.HasPrefix(baseName, "_")

		pack, err := LoadFile(path)
		if err != nil {
			infos = append(infos, Info{Name: baseName, Enabled: enabled, Path: path})
			continue
		}

		info := Info{
			Name:         pack.Name,
			Description:  pack.Description,
			Version:      pack.PackVersion,
			Author:       pack.Author,
			Enabled:      enabled,
			Path:         path,
			PatternCount: len(pack.Patterns),
		}
		if info.Name == "" {
			info.Name = baseName
		}
		infos = append(infos, info)

		if enabled {
			defs = append(defs, pack.Patterns...)
		}
	}

	return defs, infos, nil
}

func isYAMLFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
