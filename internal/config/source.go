package config

import (
	"errors"
	"fmt"
)

// SourceType says where the toolchain binaries come from.
type SourceType string

const (
	// SourceSystem resolves tools on PATH.
	SourceSystem SourceType = "system"
	// SourcePath resolves tools in a directory of prebuilt binaries.
	SourcePath SourceType = "path"
	// SourceGit and SourceDocker describe toolchain installations, which
	// stdbench does not perform.
	SourceGit    SourceType = "git"
	SourceDocker SourceType = "docker"
)

// Source configures toolchain resolution.
type Source struct {
	Type SourceType `yaml:"type"`

	// Path is the binary directory of a path source. Relative paths are
	// rooted at the workdir.
	Path string `yaml:"path"`

	// URL, Branch and Tag are accepted for git and docker sources so that
	// configurations written for an installing runner still parse.
	URL    string `yaml:"url,omitempty"`
	Branch string `yaml:"branch,omitempty"`
	Tag    string `yaml:"tag,omitempty"`
}

// Validate checks that the source is one stdbench can run with.
func (s Source) Validate() error {
	switch s.Type {
	case SourceSystem:
		return nil
	case SourcePath:
		if s.Path == "" {
			return errors.New("missing source.path")
		}
		return nil
	case SourceGit, SourceDocker:
		return fmt.Errorf("unsupported source type: %s (install the toolchain and use a path or system source)", s.Type)
	case "":
		return errors.New("missing or corrupted source.type")
	default:
		return fmt.Errorf("unknown source type: %s", s.Type)
	}
}
