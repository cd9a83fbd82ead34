package core

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// FileShipmentFetcher loads shipment bundles from JSON or YAML files.
// It maps a shipment name to a file in RootDir.
type FileShipmentFetcher struct {
	RootDir string
}

func NewFileShipmentFetcher(rootDir string) *FileShipmentFetcher {
	return &FileShipmentFetcher{RootDir: rootDir}
}

func (f *FileShipmentFetcher) Fetch(name string) (*ShipmentData, error) {
	path, err := f.resolve(name)
	if err != nil {
		return nil, err
	}
	return LoadShipmentFile(path)
}

func (f *FileShipmentFetcher) resolve(name string) (string, error) {
	if filepath.Ext(name) != "" {
		return filepath.Join(f.RootDir, name), nil
	}
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		candidate := filepath.Join(f.RootDir, name+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no shipment file for %q in %s", name, f.RootDir)
}

// LoadShipmentFile parses one shipment bundle. YAML is a superset of
// JSON, so one parser covers both file shapes.
func LoadShipmentFile(path string) (*ShipmentData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read shipment file: %w", err)
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse shipment file: %w", err)
	}
	return BuildShipmentData(doc)
}

// BuildShipmentData reshapes the raw document into the typed bundle the
// generator consumes, reconstructing serialized aggregation keys.
func BuildShipmentData(doc map[string]interface{}) (*ShipmentData, error) {
	data := &ShipmentData{
		Chunks:    make(map[string]map[string]TableChunk),
		ChunkKeys: make(map[string][]string),
		Metadata:  make(map[string]interface{}),
	}

	var err error
	if data.Aggregation, err = parseAggregation(doc["standard_aggregation_results"]); err != nil {
		return nil, fmt.Errorf("standard aggregation: %w", err)
	}
	if data.FobAggregation, err = parseAggregation(doc["fob_aggregation_results"]); err != nil {
		return nil, fmt.Errorf("fob aggregation: %w", err)
	}
	if data.CustomAggregation, err = parseAggregation(doc["custom_aggregation_results"]); err != nil {
		return nil, fmt.Errorf("custom aggregation: %w", err)
	}

	if tables, ok := doc["processed_tables"].(map[string]interface{}); ok {
		set := make(map[string]TableChunk, len(tables))
		keys := make([]string, 0, len(tables))
		for key, rawChunk := range tables {
			chunk, err := parseChunk(rawChunk)
			if err != nil {
				return nil, fmt.Errorf("chunk %q: %w", key, err)
			}
			set[key] = chunk
			keys = append(keys, key)
		}
		sortChunkKeys(keys)
		data.Chunks[defaultChunkSet] = set
		data.ChunkKeys[defaultChunkSet] = keys
	}

	if meta, ok := doc["metadata"].(map[string]interface{}); ok {
		data.Metadata = meta
	}

	return data, nil
}

// parseAggregation converts a serialized aggregation map. Entry order is
// not recoverable from a parsed object, so entries are sorted by their
// serialized key for a deterministic sheet.
func parseAggregation(raw interface{}) ([]AggregationEntry, error) {
	m, ok := raw.(map[string]interface{})
	if !ok || len(m) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]AggregationEntry, 0, len(keys))
	for _, serialized := range keys {
		key, err := ParseCompositeKey(serialized)
		if err != nil {
			return nil, err
		}
		values, ok := m[serialized].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("aggregation value for %q is not a record", serialized)
		}
		entries = append(entries, AggregationEntry{Key: key, Values: values})
	}
	return entries, nil
}

func parseChunk(raw interface{}) (TableChunk, error) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("chunk is not a field map")
	}
	chunk := make(TableChunk, len(m))
	for field, rawCol := range m {
		col, ok := rawCol.([]interface{})
		if !ok {
			return nil, fmt.Errorf("field %q is not a column array", field)
		}
		chunk[field] = col
	}
	return chunk, nil
}

// sortChunkKeys orders chunk keys numerically where possible ("1", "2",
// ..., "10"), falling back to lexical order for non-numeric keys.
func sortChunkKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		a, aErr := strconv.Atoi(keys[i])
		b, bErr := strconv.Atoi(keys[j])
		if aErr == nil && bErr == nil {
			return a < b
		}
		if aErr == nil {
			return true
		}
		if bErr == nil {
			return false
		}
		return keys[i] < keys[j]
	})
}
