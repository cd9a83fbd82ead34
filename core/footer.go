package core

import (
	"fmt"
	"log/slog"
	"strings"

	"invoice-gen/config"
)

const defaultTotalText = "TOTAL:"

// secondCategoryLabel names the complement group of the category-split
// summary, matching the commercial documents the layouts came from.
const secondCategoryLabel = "LEATHER"

func footerStyleID(layout *config.SheetLayout, border borderSpec, numberFormat string, styles *styleCache) (int, error) {
	font := fontOrDefault(layout.Footer.Font, layout.Styling.HeaderFont)
	return styles.id(cellStyle{
		Font:         font,
		Alignment:    layout.Styling.HeaderAlignment,
		NumberFormat: numberFormat,
		Border:       border,
	})
}

// writeChunkFooter writes one chunk's footer row: total label, SUM over
// the chunk's data span per configured column, and the pallet label.
func writeChunkFooter(f ExcelFile, sheet string, layout *config.SheetLayout, header *HeaderInfo, footerRow, dataStart, dataEnd, palletLabelCount int, styles *styleCache) error {
	baseStyle, err := footerStyleID(layout, fullBorder, "", styles)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, cellName(1, footerRow), cellName(header.NumColumns, footerRow), baseStyle); err != nil {
		return fmt.Errorf("failed to style footer row: %w", err)
	}

	labelCol := header.Roles.TotalLabel
	if labelCol == 0 {
		labelCol = 1
	}
	totalText := layout.Footer.TotalText
	if totalText == "" {
		totalText = defaultTotalText
	}
	if err := f.SetCellValue(sheet, cellName(labelCol, footerRow), totalText); err != nil {
		return fmt.Errorf("failed to write footer label: %w", err)
	}

	for _, id := range layout.Footer.SumColumnIDs {
		col, ok := header.ColumnMap[id]
		if !ok {
			slog.Warn("Footer sum column missing from header", "id", id)
			continue
		}
		cell := cellName(col, footerRow)

		numberFormat := layout.Footer.NumberFormats[id]
		if numberFormat == "" {
			numberFormat = fmtDecimal
		}
		styleID, err := footerStyleID(layout, fullBorder, numberFormat, styles)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, styleID); err != nil {
			return err
		}

		if dataEnd >= dataStart {
			formula := fmt.Sprintf("SUM(%s%d:%s%d)", columnName(col), dataStart, columnName(col), dataEnd)
			if err := f.SetCellFormula(sheet, cell, formula); err != nil {
				return fmt.Errorf("failed to write footer sum for %s: %w", id, err)
			}
		} else {
			if err := f.SetCellValue(sheet, cell, 0); err != nil {
				return fmt.Errorf("failed to write zero footer total for %s: %w", id, err)
			}
		}
	}

	if layout.Footer.PalletCountID != "" {
		if col, ok := header.ColumnMap[layout.Footer.PalletCountID]; ok {
			label := fmt.Sprintf("%d PALLETS", palletLabelCount)
			if err := f.SetCellValue(sheet, cellName(col, footerRow), label); err != nil {
				return fmt.Errorf("failed to write pallet label: %w", err)
			}
		} else {
			slog.Warn("Footer pallet column missing from header", "id", layout.Footer.PalletCountID)
		}
	}

	if err := applyMergeRules(f, sheet, footerRow, layout.Footer.MergeRules, baseStyle); err != nil {
		return err
	}

	height := layout.Styling.RowHeights.Footer
	if height == 0 {
		height = layout.Styling.RowHeights.Header
	}
	if height > 0 {
		if err := f.SetRowHeight(sheet, footerRow, height); err != nil {
			return fmt.Errorf("failed to set footer row height: %w", err)
		}
	}
	return nil
}

// writeGrandTotalRow writes the sheet-wide total after the last chunk,
// using the last chunk's column map and multi-range SUM formulas.
func writeGrandTotalRow(f ExcelFile, sheet string, layout *config.SheetLayout, header *HeaderInfo, row int, ranges []rowRange, grandTotalPallets int, styles *styleCache) error {
	baseStyle, err := footerStyleID(layout, fullBorder, "", styles)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, cellName(1, row), cellName(header.NumColumns, row), baseStyle); err != nil {
		return fmt.Errorf("failed to style grand total row: %w", err)
	}

	labelCol := header.Roles.TotalLabel
	if labelCol == 0 {
		labelCol = 1
	}
	totalText := layout.Footer.TotalText
	if totalText == "" {
		totalText = defaultTotalText
	}
	if err := f.SetCellValue(sheet, cellName(labelCol, row), totalText); err != nil {
		return err
	}

	for _, id := range layout.Footer.SumColumnIDs {
		col, ok := header.ColumnMap[id]
		if !ok {
			continue
		}
		var parts []string
		for _, r := range ranges {
			parts = append(parts, fmt.Sprintf("%s%d:%s%d", columnName(col), r.start, columnName(col), r.end))
		}
		if len(parts) == 0 {
			continue
		}

		numberFormat := layout.Footer.NumberFormats[id]
		if numberFormat == "" {
			numberFormat = fmtDecimal
		}
		styleID, err := footerStyleID(layout, fullBorder, numberFormat, styles)
		if err != nil {
			return err
		}
		cell := cellName(col, row)
		if err := f.SetCellStyle(sheet, cell, cell, styleID); err != nil {
			return err
		}
		if err := f.SetCellFormula(sheet, cell, "SUM("+strings.Join(parts, ",")+")"); err != nil {
			return fmt.Errorf("failed to write grand total for %s: %w", id, err)
		}
	}

	if layout.Footer.PalletCountID != "" {
		if col, ok := header.ColumnMap[layout.Footer.PalletCountID]; ok {
			label := fmt.Sprintf("%d PALLETS", grandTotalPallets)
			if err := f.SetCellValue(sheet, cellName(col, row), label); err != nil {
				return err
			}
		}
	}

	if layout.Styling.RowHeights.Header > 0 {
		if err := f.SetRowHeight(sheet, row, layout.Styling.RowHeights.Header); err != nil {
			return err
		}
	}
	return nil
}

// writeSummaryRows writes the two category-split rows: rows whose
// description contains the keyword, then everything else, each with its
// own column totals and pallet sub-total.
func writeSummaryRows(f ExcelFile, sheet string, layout *config.SheetLayout, header *HeaderInfo, startRow int, acc *sheetAccumulator, styles *styleCache) (int, error) {
	keyword := layout.SummaryKeyword
	if keyword == "" {
		keyword = "BUFFALO"
	}

	type group struct {
		label   string
		sums    map[string]float64
		pallets float64
	}
	matched := group{label: keyword, sums: make(map[string]float64)}
	rest := group{label: secondCategoryLabel, sums: make(map[string]float64)}

	for _, row := range acc.rows {
		target := &rest
		if strings.Contains(strings.ToUpper(row.description), strings.ToUpper(keyword)) {
			target = &matched
		}
		for id, v := range row.sums {
			target.sums[id] += v
		}
		target.pallets += row.pallets
	}

	font := layout.Styling.HeaderFont
	font.Bold = true

	row := startRow
	for _, g := range []group{matched, rest} {
		labelStyle, err := styles.id(cellStyle{
			Font:      font,
			Alignment: layout.Styling.HeaderAlignment,
			Border:    fullBorder,
		})
		if err != nil {
			return row, err
		}
		if err := f.SetCellStyle(sheet, cellName(1, row), cellName(header.NumColumns, row), labelStyle); err != nil {
			return row, err
		}

		labelCol := header.Roles.Description
		if labelCol == 0 {
			labelCol = header.Roles.TotalLabel
		}
		if labelCol == 0 {
			labelCol = 1
		}
		if err := f.SetCellValue(sheet, cellName(labelCol, row), g.label); err != nil {
			return row, err
		}

		for _, id := range layout.Footer.SumColumnIDs {
			col, ok := header.ColumnMap[id]
			if !ok {
				continue
			}
			numberFormat := layout.Footer.NumberFormats[id]
			if numberFormat == "" {
				numberFormat = fmtDecimal
			}
			styleID, err := styles.id(cellStyle{
				Font:         font,
				Alignment:    layout.Styling.HeaderAlignment,
				NumberFormat: numberFormat,
				Border:       fullBorder,
			})
			if err != nil {
				return row, err
			}
			cell := cellName(col, row)
			if err := f.SetCellStyle(sheet, cell, cell, styleID); err != nil {
				return row, err
			}
			if err := f.SetCellValue(sheet, cell, g.sums[id]); err != nil {
				return row, err
			}
		}

		if layout.Footer.PalletCountID != "" {
			if col, ok := header.ColumnMap[layout.Footer.PalletCountID]; ok {
				label := fmt.Sprintf("%d PALLETS", int(g.pallets))
				if err := f.SetCellValue(sheet, cellName(col, row), label); err != nil {
					return row, err
				}
			}
		}

		if layout.Styling.RowHeights.Header > 0 {
			if err := f.SetRowHeight(sheet, row, layout.Styling.RowHeights.Header); err != nil {
				return row, err
			}
		}
		row++
	}
	return row, nil
}

// writeSpacerRow merges one blank row across the table width between two
// chunks.
func writeSpacerRow(f ExcelFile, sheet string, row int, header *HeaderInfo) error {
	if header.NumColumns < 2 {
		return nil
	}
	if err := unmergeOverlap(f, sheet, 1, row, header.NumColumns, row); err != nil {
		return err
	}
	return mergeWithStyle(f, sheet, 1, row, header.NumColumns, row, 0)
}

// writeExtraRows writes the configured rows below the footer (weights,
// totals, signatures). Returns the next free row.
func writeExtraRows(f ExcelFile, sheet string, layout *config.SheetLayout, startRow int, acc *sheetAccumulator, styles *styleCache) (int, error) {
	row := startRow
	for _, extra := range layout.RowsAfterFooter {
		maxCol := 1
		for _, cell := range extra.Cells {
			if cell.Column > maxCol {
				maxCol = cell.Column
			}
		}
		safeUnmergeRange(f, sheet, 1, row, maxCol, row)

		font := fontOrDefault(extra.Font, layout.Styling.DefaultFont)
		styleID, err := styles.id(cellStyle{
			Font:      font,
			Alignment: layout.Styling.DefaultAlignment,
		})
		if err != nil {
			return row, err
		}

		for _, cell := range extra.Cells {
			ref := cellName(cell.Column, row)
			if err := f.SetCellStyle(sheet, ref, ref, styleID); err != nil {
				return row, err
			}

			var value interface{}
			switch {
			case cell.TotalField != "":
				switch cell.TotalField {
				case "net":
					value = acc.netTotal
				case "gross":
					value = acc.grossTotal
				case "cbm":
					value = acc.cbmTotal
				default:
					slog.Warn("Unknown total field in extra row", "field", cell.TotalField)
					continue
				}
			case cell.StaticValue != nil:
				value = cell.StaticValue
			default:
				value = cell.Text
			}
			if err := f.SetCellValue(sheet, ref, value); err != nil {
				return row, err
			}
		}

		if err := applyMergeRules(f, sheet, row, extra.MergeRules, 0); err != nil {
			return row, err
		}
		if extra.Height > 0 {
			if err := f.SetRowHeight(sheet, row, extra.Height); err != nil {
				return row, err
			}
		}
		row++
	}
	return row, nil
}
