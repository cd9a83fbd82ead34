package core

import (
	"log/slog"

	"invoice-gen/config"
)

// RowPlan is the pre-computed size of a multi-table block. Its total must
// match what the write loop actually consumes, or row pointers
// desynchronize and a chunk overwrites the next chunk's header.
type RowPlan struct {
	Total     int
	PerChunk  map[string]int
	NumChunks int
}

// chunkRowCount mirrors the write loop for one chunk: header + optional
// blank + data rows + optional blank + footer. An empty or missing chunk
// contributes nothing; the writer skips it the same way.
func chunkRowCount(layout *config.SheetLayout, chunk TableChunk) int {
	dataRows := chunk.RowCount()
	staticRows := initialStaticRowCount(layout)
	if dataRows == 0 && staticRows == 0 {
		return 0
	}

	rows := headerHeight(layout)
	if layout.BlankAfterHeader != nil {
		rows++
	}
	rows += max(dataRows, staticRows)
	if layout.BlankBeforeFooter != nil {
		rows++
	}
	rows++ // footer
	return rows
}

// initialStaticRowCount returns the longest initial-static-rows label list
// in the mapping rules; a chunk never writes fewer rows than that.
func initialStaticRowCount(layout *config.SheetLayout) int {
	count := 0
	for _, rule := range layout.MappingRules {
		if rule.Kind == config.RuleInitialStaticRows && len(rule.InitialRows) > count {
			count = len(rule.InitialRows)
		}
	}
	return count
}

// planRows computes the total rows a multi-table sheet needs before any
// writing happens, so a single bulk insert can make room for everything.
func planRows(layout *config.SheetLayout, chunkKeys []string, chunks map[string]TableChunk) RowPlan {
	plan := RowPlan{PerChunk: make(map[string]int, len(chunkKeys))}

	present := 0
	for _, key := range chunkKeys {
		if chunkRowCount(layout, chunks[key]) > 0 {
			present++
		}
	}
	plan.NumChunks = present

	seen := 0
	for _, key := range chunkKeys {
		rows := chunkRowCount(layout, chunks[key])
		plan.PerChunk[key] = rows
		if rows == 0 {
			slog.Warn("Skipping empty chunk in row plan", "chunk", key)
			continue
		}
		seen++
		plan.Total += rows
		if seen < present {
			plan.Total++ // spacer between chunks
		}
	}

	if present > 1 {
		plan.Total++ // grand total row
	}
	if layout.Summary && present > 0 {
		plan.Total += 2 // category-split summary rows
	}
	plan.Total += layout.RowSpacing

	return plan
}
