package core

import (
	"fmt"
	"log/slog"
	"strings"

	"invoice-gen/config"
)

// fobReplacements are the fixed substitutions applied when FOB mode is
// active: delivery terms and place names flip to their FOB forms.
var fobReplacements = []config.TextReplacement{
	{Find: "DAP", Replace: "FOB", CaseSensitive: true},
	{Find: "FCA", Replace: "FOB", CaseSensitive: true},
	{Find: "SVAY RIENG", Replace: "BAVET", CaseSensitive: true},
	{Find: "BAVET CITY", Replace: "BAVET", CaseSensitive: true},
}

// applyTextReplacements walks the used range of each targeted sheet and
// applies the configured find/replace rules. Data-driven rules pull their
// replacement value from the shipment metadata.
func applyTextReplacements(f ExcelFile, rules []config.TextReplacement, data *ShipmentData) {
	sheets := f.GetSheetList()
	for _, rule := range rules {
		replacement := rule.Replace
		if rule.DataPath != "" {
			value, ok := data.Lookup(rule.DataPath)
			if !ok {
				slog.Warn("Replacement data path not found", "path", rule.DataPath)
				continue
			}
			replacement = fmt.Sprintf("%v", value)
		}

		for _, sheet := range sheets {
			if len(rule.Sheets) > 0 && !containsString(rule.Sheets, sheet) {
				continue
			}
			replaceOnSheet(f, sheet, rule, replacement)
		}
	}
}

// applyFobReplacements runs the fixed FOB substitutions on the named
// sheets.
func applyFobReplacements(f ExcelFile, sheets []string) {
	for _, rule := range fobReplacements {
		for _, sheet := range sheets {
			replaceOnSheet(f, sheet, rule, rule.Replace)
		}
	}
}

func replaceOnSheet(f ExcelFile, sheet string, rule config.TextReplacement, replacement string) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		slog.Warn("Could not read sheet for replacement", "sheet", sheet, "error", err)
		return
	}

	count := 0
	for r, row := range rows {
		for c, value := range row {
			if value == "" {
				continue
			}

			var updated string
			var hit bool
			if rule.ExactCell {
				if equalsFold(value, rule.Find, rule.CaseSensitive) {
					updated, hit = replacement, true
				}
			} else {
				updated, hit = replaceFold(value, rule.Find, replacement, rule.CaseSensitive)
			}
			if !hit || updated == value {
				continue
			}
			cell := cellName(c+1, r+1)
			if err := f.SetCellValue(sheet, cell, updated); err != nil {
				slog.Warn("Text replacement write failed", "sheet", sheet, "cell", cell, "error", err)
				continue
			}
			count++
		}
	}
	if count > 0 {
		slog.Debug("Applied text replacement", "sheet", sheet, "find", rule.Find, "cells", count)
	}
}

// writeMarkerValues locates each marker cell by its text and overwrites it
// with the compounded summary value for the rule's column.
func writeMarkerValues(f ExcelFile, sheet string, layout *config.SheetLayout, acc *sheetAccumulator) {
	for id, rule := range layout.MappingRules {
		if rule.Marker == "" {
			continue
		}
		total := 0.0
		for _, row := range acc.rows {
			total += row.sums[id]
		}

		rows, err := f.GetRows(sheet)
		if err != nil {
			slog.Warn("Could not read sheet for marker search", "sheet", sheet, "error", err)
			return
		}
		found := false
		for r, row := range rows {
			if found {
				break
			}
			for c, value := range row {
				if strings.TrimSpace(value) == rule.Marker {
					cell := cellName(c+1, r+1)
					if err := f.SetCellValue(sheet, cell, total); err != nil {
						slog.Warn("Marker value write failed", "sheet", sheet, "cell", cell, "error", err)
					}
					found = true
					break
				}
			}
		}
		if !found {
			slog.Warn("Summary marker not found on sheet", "sheet", sheet, "marker", rule.Marker)
		}
	}
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func equalsFold(value, find string, caseSensitive bool) bool {
	if caseSensitive {
		return value == find
	}
	return strings.EqualFold(value, find)
}

func replaceFold(value, find, replacement string, caseSensitive bool) (string, bool) {
	if caseSensitive {
		if !strings.Contains(value, find) {
			return value, false
		}
		return strings.ReplaceAll(value, find, replacement), true
	}
	lower := strings.ToLower(value)
	lowerFind := strings.ToLower(find)
	if !strings.Contains(lower, lowerFind) {
		return value, false
	}
	var b strings.Builder
	for {
		idx := strings.Index(strings.ToLower(value), lowerFind)
		if idx < 0 {
			b.WriteString(value)
			break
		}
		b.WriteString(value[:idx])
		b.WriteString(replacement)
		value = value[idx+len(find):]
	}
	return b.String(), true
}
