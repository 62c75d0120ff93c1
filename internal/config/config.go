// Package config loads the optional .bootprof.yaml from the target project.
// Everything in it is also reachable from the command line; flags win over
// file values.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"bootprof/internal/report"
)

// FileName is looked up in the profiled project's directory.
const FileName = ".bootprof.yaml"

// File mirrors the YAML config surface.
type File struct {
	Entry          string  `yaml:"entry"`
	ReadyMarker    string  `yaml:"readyMarker"`
	TimeoutSeconds int     `yaml:"timeoutSeconds"`
	Top            int     `yaml:"top"`
	MinTimeMs      float64 `yaml:"minTimeMs"`
	IncludeDeps    *bool   `yaml:"includeDeps"`
	GroupPackages  *bool   `yaml:"groupPackages"`

	// FrameworkMarkers replaces the built-in framework table when set, for
	// projects on a different framework. Roles adds project patterns ahead
	// of the built-in role table; earlier entries win.
	FrameworkMarkers []string             `yaml:"frameworkMarkers"`
	Roles            []report.RolePattern `yaml:"roles"`
}

// Load reads dir/.bootprof.yaml. A missing file is not an error; it simply
// yields the zero value so every default applies.
func Load(dir string) (File, error) {
	var f File
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return f, nil
		}
		return f, err
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, err
	}
	return f, nil
}
