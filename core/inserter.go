package core

import (
	"fmt"
	"log/slog"
)

// insertBlock performs the single bulk row-insertion for a sheet and then
// force-unmerges the freshly inserted block. InsertRows can silently fold
// new rows into a merge that straddled the insertion point; the block is
// cleared so each chunk starts from plain cells.
//
// Returns (true, rowCount) on success. On failure the sheet is abandoned:
// there is no partial-chunk recovery.
func insertBlock(f ExcelFile, sheet string, startRow, rowCount, numColumns int) (bool, int) {
	if rowCount <= 0 {
		return true, 0
	}

	if err := f.InsertRows(sheet, startRow, rowCount); err != nil {
		slog.Error("Bulk row insert failed", "sheet", sheet, "row", startRow, "rows", rowCount, "error", err)
		return false, 0
	}

	endRow := startRow + rowCount - 1
	if numColumns < 1 {
		numColumns = 1
	}
	if err := unmergeOverlap(f, sheet, 1, startRow, numColumns, endRow); err != nil {
		slog.Error("Failed to clear merges on inserted block", "sheet", sheet, "error", err)
		return false, rowCount
	}

	slog.Debug("Inserted block", "sheet", sheet, "startRow", startRow, "rows", rowCount)
	return true, rowCount
}

// safeUnmergeRange clears merges in a rectangle, logging instead of
// failing; used before writes into existing template rows where stale
// merges commonly overlap the target cells.
func safeUnmergeRange(f ExcelFile, sheet string, startCol, startRow, endCol, endRow int) {
	if err := unmergeOverlap(f, sheet, startCol, startRow, endCol, endRow); err != nil {
		slog.Warn("Could not clear merges", "sheet", sheet,
			"range", fmt.Sprintf("%s:%s", cellName(startCol, startRow), cellName(endCol, endRow)),
			"error", err)
	}
}
