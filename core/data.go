package core

import (
	"fmt"
	"strconv"
	"strings"
)

// CompositeKey is a reconstructed aggregation key. The standard shape is
// (PO, Item, UnitPrice); custom aggregations may carry fewer or more parts.
type CompositeKey struct {
	Parts []interface{}
}

// Part returns the key element at idx, or nil if out of range.
func (k CompositeKey) Part(idx int) interface{} {
	if idx < 0 || idx >= len(k.Parts) {
		return nil
	}
	return k.Parts[idx]
}

// AggregationEntry：one aggregated row, key plus summed value record.
// Entries keep their serialized order; iteration order is row order.
type AggregationEntry struct {
	Key    CompositeKey
	Values map[string]interface{}
}

// TableChunk holds one packed table as parallel column arrays, all indexed
// by the same row ordinal.
type TableChunk map[string][]interface{}

// RowCount returns the longest column array in the chunk.
func (c TableChunk) RowCount() int {
	maxLen := 0
	for _, col := range c {
		if len(col) > maxLen {
			maxLen = len(col)
		}
	}
	return maxLen
}

// Cell returns column key's value at row, or nil when the column is missing
// or shorter than row.
func (c TableChunk) Cell(key string, row int) interface{} {
	col, ok := c[key]
	if !ok || row < 0 || row >= len(col) {
		return nil
	}
	return col[row]
}

// ShipmentData is the parsed shipment bundle a generation run consumes.
type ShipmentData struct {
	Aggregation       []AggregationEntry
	FobAggregation    []AggregationEntry
	CustomAggregation []AggregationEntry

	// Chunks maps a chunk-set name (e.g. "processed_tables") to its
	// tables; ChunkKeys preserves each set's table order ("1", "2", ...).
	Chunks    map[string]map[string]TableChunk
	ChunkKeys map[string][]string

	// Metadata carries invoice-level fields (invoice no, date, ref) used
	// by data-driven text replacement.
	Metadata map[string]interface{}
}

// Lookup resolves a dotted path like "metadata.invoice_no" against the
// shipment metadata.
func (d *ShipmentData) Lookup(path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	if len(parts) > 0 && parts[0] == "metadata" {
		parts = parts[1:]
	}
	var cur interface{} = d.Metadata
	for _, p := range parts {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// ParseCompositeKey reconstructs a key serialized in the upstream tuple
// form, e.g. "('PO123', 'ITEM-1', Decimal('1.25'))". Quoted elements stay
// strings; Decimal wrappers and bare numbers become float64.
func ParseCompositeKey(s string) (CompositeKey, error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "(")
	trimmed = strings.TrimSuffix(trimmed, ")")

	var parts []interface{}
	for _, raw := range splitTopLevel(trimmed) {
		elem := strings.TrimSpace(raw)
		if elem == "" {
			continue
		}
		part, err := parseKeyElement(elem)
		if err != nil {
			return CompositeKey{}, fmt.Errorf("cannot parse key element %q in %q: %w", elem, s, err)
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return CompositeKey{}, fmt.Errorf("empty composite key %q", s)
	}
	return CompositeKey{Parts: parts}, nil
}

// splitTopLevel splits on commas that are outside quotes and parentheses,
// so Decimal('1,234.5') style elements survive intact.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	inQuote := false
	start := 0
	for i, r := range s {
		switch {
		case r == '\'' || r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '(':
			depth++
		case r == ')':
			depth--
		case r == ',' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func parseKeyElement(elem string) (interface{}, error) {
	if strings.HasPrefix(elem, "Decimal(") && strings.HasSuffix(elem, ")") {
		inner := strings.TrimSuffix(strings.TrimPrefix(elem, "Decimal("), ")")
		inner = strings.Trim(inner, "'\"")
		f, err := strconv.ParseFloat(strings.ReplaceAll(inner, ",", ""), 64)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	if len(elem) >= 2 && (elem[0] == '\'' || elem[0] == '"') {
		return strings.Trim(elem, "'\""), nil
	}
	if f, err := strconv.ParseFloat(elem, 64); err == nil {
		return f, nil
	}
	// Unquoted non-numeric elements are kept as-is.
	return elem, nil
}

// coerceNumeric converts numeric-looking values to int or float64,
// stripping thousands separators; everything else passes through.
func coerceNumeric(v interface{}) interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case int, int64, float64:
		return t
	case float32:
		return float64(t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return t
		}
		clean := strings.ReplaceAll(s, ",", "")
		if i, err := strconv.ParseInt(clean, 10, 64); err == nil {
			return int(i)
		}
		if f, err := strconv.ParseFloat(clean, 64); err == nil {
			return f
		}
		return t
	default:
		return v
	}
}

// asFloat extracts a float64 from the loosely typed values the data files
// carry, returning 0 for anything non-numeric.
func asFloat(v interface{}) float64 {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case float32:
		return float64(t)
	case float64:
		return t
	case string:
		clean := strings.ReplaceAll(strings.TrimSpace(t), ",", "")
		if f, err := strconv.ParseFloat(clean, 64); err == nil {
			return f
		}
	}
	return 0
}

func isBlank(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
