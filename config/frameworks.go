package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestFile is the dependency manifest checked by the pipeline.
const ManifestFile = "package.json"

// DependencyCache is the directory the install step populates.
const DependencyCache = "node_modules"

// Framework is one entry in the supported-framework table: a plain data
// lookup, no heuristics beyond manifest membership.
type Framework struct {
	// Name as given on the command line or in config.
	Name string

	// Dependency is the manifest package whose presence declares the
	// framework.
	Dependency string

	// BuildCommand produces the static site.
	BuildCommand string

	// OutputDir is where the build writes the site, relative to the
	// project root.
	OutputDir string
}

// Frameworks is the supported-framework table, in menu order.
var Frameworks = []Framework{
	{Name: "react", Dependency: "react-scripts", BuildCommand: "npm run build", OutputDir: "build"},
	{Name: "vue", Dependency: "vue", BuildCommand: "npm run build", OutputDir: "dist"},
	{Name: "angular", Dependency: "@angular/core", BuildCommand: "npm run build", OutputDir: "dist"},
	{Name: "svelte", Dependency: "svelte", BuildCommand: "npm run build", OutputDir: "public"},
	{Name: "next", Dependency: "next", BuildCommand: "npm run build", OutputDir: "out"},
	{Name: "nuxt", Dependency: "nuxt", BuildCommand: "npm run generate", OutputDir: "dist"},
	{Name: "gatsby", Dependency: "gatsby", BuildCommand: "npm run build", OutputDir: "public"},
	{Name: "astro", Dependency: "astro", BuildCommand: "npm run build", OutputDir: "dist"},
	{Name: "vite", Dependency: "vite", BuildCommand: "npm run build", OutputDir: "dist"},
}

// LookupFramework returns the table entry for name.
func LookupFramework(name string) (Framework, bool) {
	for _, f := range Frameworks {
		if f.Name == name {
			return f, true
		}
	}
	return Framework{}, false
}

// FrameworkNames returns the table's names in menu order.
func FrameworkNames() []string {
	names := make([]string, len(Frameworks))
	for i, f := range Frameworks {
		names[i] = f.Name
	}
	return names
}

// manifest is the subset of package.json the table consults.
type manifest struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func readManifest(projectRoot string) (*manifest, error) {
	data, err := os.ReadFile(filepath.Join(projectRoot, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ManifestFile, err)
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ManifestFile, err)
	}
	return &m, nil
}

// DeclaresDependency reports whether the project manifest lists the
// given package in dependencies or devDependencies.
func DeclaresDependency(projectRoot, pkg string) (bool, error) {
	m, err := readManifest(projectRoot)
	if err != nil {
		return false, err
	}
	if _, ok := m.Dependencies[pkg]; ok {
		return true, nil
	}
	_, ok := m.DevDependencies[pkg]
	return ok, nil
}

// DetectFramework walks the table and returns the first framework the
// manifest declares.
func DetectFramework(projectRoot string) (Framework, bool) {
	m, err := readManifest(projectRoot)
	if err != nil {
		return Framework{}, false
	}
	for _, f := range Frameworks {
		if _, ok := m.Dependencies[f.Dependency]; ok {
			return f, true
		}
		if _, ok := m.DevDependencies[f.Dependency]; ok {
			return f, true
		}
	}
	return Framework{}, false
}
