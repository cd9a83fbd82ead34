package core

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Merges above this row belong to the static document masthead and are
// never disturbed by row insertion.
const defaultMergeThreshold = 16

// defaultMergeSearchRange bounds the restoration search.
const defaultMergeSearchRange = "A16:H200"

// StoredMerge records a single-row merge by content identity rather than
// coordinates: row insertion invalidates coordinates, so restoration
// re-locates the anchor by its value.
type StoredMerge struct {
	ColSpan   int
	Value     string
	RowHeight float64
}

// storeRowMerges records every single-row merge at or below the threshold
// for the given sheets. Multi-row merges and masthead merges are
// intentionally ignored.
func storeRowMerges(f ExcelFile, sheets []string, thresholdRow int) map[string][]StoredMerge {
	stored := make(map[string][]StoredMerge)
	for _, sheet := range sheets {
		merges, err := f.GetMergeCells(sheet)
		if err != nil {
			slog.Warn("Could not list merges for store", "sheet", sheet, "error", err)
			continue
		}
		for _, mc := range merges {
			c1, r1, c2, r2, err := mergeBounds(mc)
			if err != nil {
				continue
			}
			if r1 != r2 || r1 < thresholdRow {
				continue
			}
			value, _ := f.GetCellValue(sheet, cellName(c1, r1))
			height, _ := f.GetRowHeight(sheet, r1)
			stored[sheet] = append(stored[sheet], StoredMerge{
				ColSpan:   c2 - c1 + 1,
				Value:     value,
				RowHeight: height,
			})
		}
		slog.Debug("Stored merges", "sheet", sheet, "count", len(stored[sheet]))
	}
	return stored
}

// restoreRowMerges re-applies stored merges after all insertion and
// writing is done. The search runs bottom-to-top, left-to-right in the
// bounded range; each written value satisfies at most one record. A value
// that matches nothing is logged and left unmerged, never fatal.
func restoreRowMerges(f ExcelFile, stored map[string][]StoredMerge, searchRange string) (restored, failed int) {
	if searchRange == "" {
		searchRange = defaultMergeSearchRange
	}
	startCol, startRow, endCol, endRow, err := parseCellRange(searchRange)
	if err != nil {
		slog.Error("Invalid merge search range", "range", searchRange, "error", err)
		return 0, 0
	}

	for sheet, records := range stored {
		used := make(map[string]bool)
		for _, record := range records {
			if record.ColSpan <= 1 {
				continue
			}
			if strings.TrimSpace(record.Value) == "" {
				continue
			}

			row, col, found := findAnchor(f, sheet, record.Value, used, startCol, startRow, endCol, endRow)
			if !found {
				slog.Warn("Failed to restore merge, value not found",
					"sheet", sheet, "value", record.Value, "span", record.ColSpan)
				failed++
				continue
			}
			used[record.Value] = true

			spanEnd := col + record.ColSpan - 1
			if err := unmergeOverlap(f, sheet, col, row, spanEnd, row); err != nil {
				slog.Warn("Could not clear overlapping merges during restore", "sheet", sheet, "error", err)
			}
			if err := f.MergeCell(sheet, cellName(col, row), cellName(spanEnd, row)); err != nil {
				slog.Warn("Merge restore failed", "sheet", sheet, "cell", cellName(col, row), "error", err)
				failed++
				continue
			}
			if record.RowHeight > 0 {
				if err := f.SetRowHeight(sheet, row, record.RowHeight); err != nil {
					slog.Warn("Could not restore merged row height", "sheet", sheet, "row", row, "error", err)
				}
			}
			// Merging can blank the secondary cells; put the anchor value
			// back explicitly.
			if err := f.SetCellValue(sheet, cellName(col, row), record.Value); err != nil {
				slog.Warn("Could not rewrite merge anchor value", "sheet", sheet, "error", err)
			}
			restored++
		}
	}
	return restored, failed
}

// findAnchor searches bottom-to-top, left-to-right for the first cell
// whose value equals target and has not been claimed by an earlier record.
func findAnchor(f ExcelFile, sheet, target string, used map[string]bool, startCol, startRow, endCol, endRow int) (row, col int, found bool) {
	if used[target] {
		return 0, 0, false
	}
	for r := endRow; r >= startRow; r-- {
		for c := startCol; c <= endCol; c++ {
			value, err := f.GetCellValue(sheet, cellName(c, r))
			if err != nil {
				continue
			}
			if value == target {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}

func parseCellRange(ref string) (int, int, int, int, error) {
	parts := strings.Split(ref, ":")
	if len(parts) != 2 {
		return 0, 0, 0, 0, fmt.Errorf("invalid range: %s", ref)
	}
	c1, r1, err := excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return 0, 0, 0, 0, err
	}
	c2, r2, err := excelize.CellNameToCoordinates(parts[1])
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return c1, r1, c2, r2, nil
}
