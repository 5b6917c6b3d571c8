// Package config holds the process-wide settings bag: established once
// at startup, threaded explicitly through every component, and treated
// as read-only afterwards.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults for values nothing overrides.
const (
	DefaultBranch = "gh-pages"
	DefaultRemote = "origin"

	// FileName is the optional per-project configuration file.
	FileName = ".pagelift.yaml"
)

// Environment keys. Each is optional and overridden by the matching
// command-line flag.
const (
	EnvYes       = "PAGELIFT_YES"
	EnvDryRun    = "PAGELIFT_DRY_RUN"
	EnvVerbose   = "PAGELIFT_VERBOSE"
	EnvBuildDir  = "PAGELIFT_BUILD_DIR"
	EnvFramework = "PAGELIFT_FRAMEWORK"
	EnvBranch    = "PAGELIFT_BRANCH"
)

// Settings is the resolved process configuration.
type Settings struct {
	Unattended bool
	DryRun     bool
	Verbose    bool
	Framework  string
	BuildDir   string
	Branch     string
	Remote     string
}

// fileConfig mirrors Settings in the optional YAML file. Pointer fields
// distinguish "absent" from explicit false/empty.
type fileConfig struct {
	Yes       *bool   `yaml:"yes"`
	DryRun    *bool   `yaml:"dry_run"`
	Verbose   *bool   `yaml:"verbose"`
	BuildDir  *string `yaml:"build_dir"`
	Framework *string `yaml:"framework"`
	Branch    *string `yaml:"branch"`
	Remote    *string `yaml:"remote"`
}

// Load resolves settings for a project. Precedence, lowest first:
// defaults, the project config file, environment variables. Flags apply
// on top at the CLI layer.
func Load(projectRoot string) (*Settings, error) {
	s := &Settings{
		Branch: DefaultBranch,
		Remote: DefaultRemote,
	}
	if err := s.applyFile(filepath.Join(projectRoot, FileName)); err != nil {
		return nil, err
	}
	if err := s.applyEnv(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if fc.Yes != nil {
		s.Unattended = *fc.Yes
	}
	if fc.DryRun != nil {
		s.DryRun = *fc.DryRun
	}
	if fc.Verbose != nil {
		s.Verbose = *fc.Verbose
	}
	if fc.BuildDir != nil {
		s.BuildDir = *fc.BuildDir
	}
	if fc.Framework != nil {
		s.Framework = *fc.Framework
	}
	if fc.Branch != nil {
		s.Branch = *fc.Branch
	}
	if fc.Remote != nil {
		s.Remote = *fc.Remote
	}
	return nil
}

func (s *Settings) applyEnv() error {
	for _, b := range []struct {
		key  string
		dest *bool
	}{
		{EnvYes, &s.Unattended},
		{EnvDryRun, &s.DryRun},
		{EnvVerbose, &s.Verbose},
	} {
		value, ok := os.LookupEnv(b.key)
		if !ok {
			continue
		}
		parsed, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", b.key, err)
		}
		*b.dest = parsed
	}
	for _, v := range []struct {
		key  string
		dest *string
	}{
		{EnvBuildDir, &s.BuildDir},
		{EnvFramework, &s.Framework},
		{EnvBranch, &s.Branch},
	} {
		if value, ok := os.LookupEnv(v.key); ok && value != "" {
			*v.dest = value
		}
	}
	return nil
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y":
		return true, nil
	case "0", "false", "no", "n", "":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", value)
	}
}
