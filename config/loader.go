package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadLayout loads a workbook layout configuration from a YAML or JSON
// file (YAML is a superset, so both parse the same way).
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout config file: %w", err)
	}

	var layout Layout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("failed to parse layout config: %w", err)
	}

	return &layout, nil
}

// DerivedPaths holds the template and layout config resolved for a data file.
type DerivedPaths struct {
	Identifier string
	Template   string
	Config     string
}

// identifierFromDataFile strips the conventional decorations from a data
// file name: data_JF123_input.json -> JF123.
func identifierFromDataFile(dataFile string) string {
	base := filepath.Base(dataFile)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	for _, suffix := range []string{"_data", "_input", "_pkl"} {
		base = strings.TrimSuffix(base, suffix)
	}
	base = strings.TrimPrefix(base, "data_")
	return base
}

// leadingLetters returns the alphabetic prefix of s, used for the loose
// template/config match when no exact file exists.
func leadingLetters(s string) string {
	for i, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return s[:i]
		}
	}
	return s
}

func findByIdentifier(dir, identifier, suffix string) (string, error) {
	exact := filepath.Join(dir, identifier+suffix)
	if _, err := os.Stat(exact); err == nil {
		return exact, nil
	}

	prefix := leadingLetters(identifier)
	if prefix == "" {
		return "", fmt.Errorf("no file matching %q in %s", identifier+suffix, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasPrefix(name, prefix) && strings.HasSuffix(name, suffix) {
			return filepath.Join(dir, name), nil
		}
	}
	return "", fmt.Errorf("no file matching %q or prefix %q in %s", identifier+suffix, prefix, dir)
}

// DerivePaths resolves the template workbook and layout config that belong
// to a shipment data file, by naming convention: an exact identifier match
// first, then a match on the identifier's leading letters.
func DerivePaths(dataFile, templateDir, configDir string) (*DerivedPaths, error) {
	identifier := identifierFromDataFile(dataFile)
	if identifier == "" {
		return nil, fmt.Errorf("cannot derive identifier from data file %q", dataFile)
	}

	template, err := findByIdentifier(templateDir, identifier, ".xlsx")
	if err != nil {
		return nil, fmt.Errorf("template lookup failed: %w", err)
	}

	config, err := findByIdentifier(configDir, identifier, "_config.json")
	if err != nil {
		// Layout bundles may also be shipped as YAML.
		config, err = findByIdentifier(configDir, identifier, "_config.yaml")
		if err != nil {
			return nil, fmt.Errorf("layout config lookup failed: %w", err)
		}
	}

	return &DerivedPaths{
		Identifier: identifier,
		Template:   template,
		Config:     config,
	}, nil
}
