package core

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"invoice-gen/config"
)

// cellName converts 1-based coordinates to an A1 reference. Coordinates
// produced by the fill engine are always valid, so the error is dropped.
func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func columnName(col int) string {
	name, _ := excelize.ColumnNumberToName(col)
	return name
}

// mergeBounds parses a merge range into 1-based (c1, r1, c2, r2).
func mergeBounds(mc excelize.MergeCell) (int, int, int, int, error) {
	c1, r1, err := excelize.CellNameToCoordinates(mc.GetStartAxis())
	if err != nil {
		return 0, 0, 0, 0, err
	}
	c2, r2, err := excelize.CellNameToCoordinates(mc.GetEndAxis())
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return c1, r1, c2, r2, nil
}

// unmergeRowRange dissolves every merge that overlaps the row range, even
// partially. Inserted rows silently join merges that straddle the
// insertion point, so the whole block is cleared before writing.
func unmergeRowRange(f ExcelFile, sheet string, startRow, endRow int) error {
	merges, err := f.GetMergeCells(sheet)
	if err != nil {
		return fmt.Errorf("failed to list merges on %s: %w", sheet, err)
	}
	for _, mc := range merges {
		c1, r1, c2, r2, err := mergeBounds(mc)
		if err != nil {
			continue
		}
		if r2 < startRow || r1 > endRow {
			continue
		}
		if err := f.UnmergeCell(sheet, cellName(c1, r1), cellName(c2, r2)); err != nil {
			return fmt.Errorf("failed to unmerge %s:%s on %s: %w", mc.GetStartAxis(), mc.GetEndAxis(), sheet, err)
		}
	}
	return nil
}

// unmergeOverlap dissolves merges overlapping a rectangular area.
func unmergeOverlap(f ExcelFile, sheet string, startCol, startRow, endCol, endRow int) error {
	merges, err := f.GetMergeCells(sheet)
	if err != nil {
		return fmt.Errorf("failed to list merges on %s: %w", sheet, err)
	}
	for _, mc := range merges {
		c1, r1, c2, r2, err := mergeBounds(mc)
		if err != nil {
			continue
		}
		if r2 < startRow || r1 > endRow || c2 < startCol || c1 > endCol {
			continue
		}
		if err := f.UnmergeCell(sheet, cellName(c1, r1), cellName(c2, r2)); err != nil {
			return fmt.Errorf("failed to unmerge %s:%s on %s: %w", mc.GetStartAxis(), mc.GetEndAxis(), sheet, err)
		}
	}
	return nil
}

// mergeWithStyle merges a range and applies one style id across it, so
// every covered cell keeps the border after the merge.
func mergeWithStyle(f ExcelFile, sheet string, startCol, startRow, endCol, endRow, styleID int) error {
	top := cellName(startCol, startRow)
	bottom := cellName(endCol, endRow)
	if styleID != 0 {
		if err := f.SetCellStyle(sheet, top, bottom, styleID); err != nil {
			return fmt.Errorf("failed to style merge range %s:%s: %w", top, bottom, err)
		}
	}
	if err := f.MergeCell(sheet, top, bottom); err != nil {
		return fmt.Errorf("failed to merge %s:%s: %w", top, bottom, err)
	}
	return nil
}

// applyMergeRules applies configured horizontal merges to one row.
func applyMergeRules(f ExcelFile, sheet string, row int, rules []config.MergeRule, styleID int) error {
	for _, rule := range rules {
		if rule.ColSpan <= 1 {
			continue
		}
		endCol := rule.StartColumn + rule.ColSpan - 1
		if err := unmergeOverlap(f, sheet, rule.StartColumn, row, endCol, row); err != nil {
			return err
		}
		if err := mergeWithStyle(f, sheet, rule.StartColumn, row, endCol, row, styleID); err != nil {
			return err
		}
	}
	return nil
}

// setColumnWidths applies per-column widths from the layout. Column ids
// are resolved through the header's column map.
func setColumnWidths(f ExcelFile, sheet string, widths map[string]float64, columnMap map[string]int) error {
	for id, width := range widths {
		col, ok := columnMap[id]
		if !ok {
			continue
		}
		name := columnName(col)
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return fmt.Errorf("failed to set width of column %s: %w", name, err)
		}
	}
	return nil
}
