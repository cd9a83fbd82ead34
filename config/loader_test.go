package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIdentifierFromDataFile(t *testing.T) {
	cases := map[string]string{
		"JF25100_data.json":       "JF25100",
		"data_JF25100_input.json": "JF25100",
		"HY_data.yaml":            "HY",
		"plain.json":              "plain",
	}
	for in, want := range cases {
		if got := identifierFromDataFile(in); got != want {
			t.Fatalf("identifierFromDataFile(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDerivePathsExactMatch(t *testing.T) {
	tmpDir := t.TempDir()
	templateDir := filepath.Join(tmpDir, "templates")
	configDir := filepath.Join(tmpDir, "configs")
	for _, dir := range []string{templateDir, configDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
	}

	if err := os.WriteFile(filepath.Join(templateDir, "JF25100.xlsx"), []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write template: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "JF25100_config.json"), []byte("{}"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	got, err := DerivePaths("JF25100_data.json", templateDir, configDir)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	if got.Identifier != "JF25100" {
		t.Fatalf("expected identifier JF25100, got %q", got.Identifier)
	}
	if filepath.Base(got.Template) != "JF25100.xlsx" {
		t.Fatalf("unexpected template %q", got.Template)
	}
	if filepath.Base(got.Config) != "JF25100_config.json" {
		t.Fatalf("unexpected config %q", got.Config)
	}
}

func TestDerivePathsPrefixFallback(t *testing.T) {
	tmpDir := t.TempDir()
	templateDir := filepath.Join(tmpDir, "templates")
	configDir := filepath.Join(tmpDir, "configs")
	for _, dir := range []string{templateDir, configDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
	}

	// No exact JF25100 files; only the JF family template and config.
	if err := os.WriteFile(filepath.Join(templateDir, "JF.xlsx"), []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write template: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "JF_config.json"), []byte("{}"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	got, err := DerivePaths("JF25100_data.json", templateDir, configDir)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	if filepath.Base(got.Template) != "JF.xlsx" {
		t.Fatalf("expected prefix-matched template, got %q", got.Template)
	}
	if filepath.Base(got.Config) != "JF_config.json" {
		t.Fatalf("expected prefix-matched config, got %q", got.Config)
	}
}

func TestLoadLayout(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "layout.yaml")
	content := `
sheetsToProcess: ["Invoice"]
sheetDataMap:
  Invoice: aggregation
sheets:
  Invoice:
    startRow: 21
    headerCells:
      - {row: 0, col: 0, text: "P.O Nº", id: "po"}
      - {row: 0, col: 1, text: "ITEM Nº", id: "item"}
    mappingRules:
      po:
        kind: key_index
        keyIndex: 0
      item:
        kind: key_index
        keyIndex: 1
    footer:
      totalText: "TOTAL:"
      sumColumnIds: ["item"]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write layout: %v", err)
	}

	layout, err := LoadLayout(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	sheet, ok := layout.Sheets["Invoice"]
	if !ok {
		t.Fatalf("Invoice sheet missing from layout")
	}
	if sheet.StartRow != 21 {
		t.Fatalf("expected startRow 21, got %d", sheet.StartRow)
	}
	if sheet.MappingRules["po"].Kind != RuleKeyIndex {
		t.Fatalf("expected key_index rule for po, got %q", sheet.MappingRules["po"].Kind)
	}
	if layout.SheetDataMap["Invoice"] != "aggregation" {
		t.Fatalf("unexpected data map entry: %q", layout.SheetDataMap["Invoice"])
	}
}
