package core

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// SQLShipmentFetcher implements ShipmentFetcher using a generic SQL
// database (MySQL, PostgreSQL). It maps a shipment name to rows of a
// shipment-lines table.
type SQLShipmentFetcher struct {
	DB         *sql.DB
	DriverName string // "mysql" or "postgres"
	Table      string
}

// NewSQLShipmentFetcher creates a new fetcher.
func NewSQLShipmentFetcher(db *sql.DB, driverName, table string) *SQLShipmentFetcher {
	if table == "" {
		table = "shipment_lines"
	}
	return &SQLShipmentFetcher{
		DB:         db,
		DriverName: driverName,
		Table:      table,
	}
}

// Fetch selects all lines of one shipment and reshapes them into the
// typed bundle.
func (f *SQLShipmentFetcher) Fetch(name string) (*ShipmentData, error) {
	var query string
	if f.DriverName == "postgres" {
		query = fmt.Sprintf("SELECT * FROM %s WHERE shipment = $1", f.Table)
	} else {
		// MySQL and others use ?
		query = fmt.Sprintf("SELECT * FROM %s WHERE shipment = ?", f.Table)
	}

	rows, err := f.DB.Query(query, name)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	var lines []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}

		entry := make(map[string]interface{})
		for i, col := range columns {
			val := values[i]
			// MySQL driver often returns strings as []byte.
			if b, ok := val.([]byte); ok {
				entry[col] = string(b)
			} else {
				entry[col] = val
			}
		}
		lines = append(lines, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("no lines found for shipment %q", name)
	}

	return shipmentFromLines(lines), nil
}

// shipmentFromLines reshapes flat shipment lines into the typed bundle:
// lines grouped by chunk key become packed tables, and the standard
// aggregation is rebuilt by summing per (po, item, unit_price).
func shipmentFromLines(lines []map[string]interface{}) *ShipmentData {
	data := &ShipmentData{
		Chunks:    make(map[string]map[string]TableChunk),
		ChunkKeys: make(map[string][]string),
		Metadata:  make(map[string]interface{}),
	}

	// Packed tables, grouped by the chunk_key column ("1" by default).
	grouped := make(map[string][]map[string]interface{})
	for _, line := range lines {
		key := "1"
		if v, ok := line["chunk_key"]; ok && !isBlank(v) {
			key = fmt.Sprintf("%v", v)
		}
		grouped[key] = append(grouped[key], line)
	}

	set := make(map[string]TableChunk, len(grouped))
	keys := make([]string, 0, len(grouped))
	for key, group := range grouped {
		chunk := make(TableChunk)
		for _, line := range group {
			for col, v := range line {
				if col == "chunk_key" || col == "shipment" {
					continue
				}
				chunk[col] = append(chunk[col], v)
			}
		}
		set[key] = chunk
		keys = append(keys, key)
	}
	sortChunkKeys(keys)
	data.Chunks[defaultChunkSet] = set
	data.ChunkKeys[defaultChunkSet] = keys

	// Standard aggregation: sum quantities and amounts per composite key.
	type aggKey struct {
		po, item string
		price    float64
	}
	sums := make(map[aggKey]map[string]interface{})
	var order []aggKey
	for _, line := range lines {
		k := aggKey{
			po:    fmt.Sprintf("%v", line["po"]),
			item:  fmt.Sprintf("%v", line["item"]),
			price: asFloat(line["unit_price"]),
		}
		record, ok := sums[k]
		if !ok {
			record = map[string]interface{}{"sqft_sum": 0.0, "amount_sum": 0.0, "pallet_count": 0.0, "net": 0.0, "gross": 0.0, "cbm": 0.0}
			sums[k] = record
			order = append(order, k)
		}
		for _, field := range []string{"sqft_sum", "amount_sum", "pallet_count", "net", "gross", "cbm"} {
			src := strings.TrimSuffix(field, "_sum")
			record[field] = record[field].(float64) + asFloat(line[src])
		}
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].po != order[j].po {
			return order[i].po < order[j].po
		}
		if order[i].item != order[j].item {
			return order[i].item < order[j].item
		}
		return order[i].price < order[j].price
	})
	for _, k := range order {
		data.Aggregation = append(data.Aggregation, AggregationEntry{
			Key:    CompositeKey{Parts: []interface{}{k.po, k.item, k.price}},
			Values: sums[k],
		})
	}

	return data
}
