package core

import (
	"fmt"
	"log/slog"
	"strings"

	"invoice-gen/config"
)

// Error markers written into cells when a formula input cannot be
// resolved, instead of failing the whole row.
const (
	markerRef = "#REF!"
	markerErr = "#ERR!"
)

// rowSource abstracts the two data shapes the resolver fills from:
// aggregated key/value entries and packed parallel-array chunks.
type rowSource interface {
	Len() int
	KeyPart(row, idx int) interface{}
	Field(row int, key string) interface{}
	PalletCount(row int) float64
}

type aggregationSource struct {
	entries []AggregationEntry
}

func (s aggregationSource) Len() int { return len(s.entries) }

func (s aggregationSource) KeyPart(row, idx int) interface{} {
	if row < 0 || row >= len(s.entries) {
		return nil
	}
	return s.entries[row].Key.Part(idx)
}

func (s aggregationSource) Field(row int, key string) interface{} {
	if row < 0 || row >= len(s.entries) {
		return nil
	}
	return s.entries[row].Values[key]
}

func (s aggregationSource) PalletCount(row int) float64 {
	return asFloat(s.Field(row, "pallet_count"))
}

type chunkSource struct {
	chunk TableChunk
}

func (s chunkSource) Len() int { return s.chunk.RowCount() }

func (s chunkSource) KeyPart(row, idx int) interface{} { return nil }

func (s chunkSource) Field(row int, key string) interface{} {
	return s.chunk.Cell(key, row)
}

func (s chunkSource) PalletCount(row int) float64 {
	return asFloat(s.chunk.Cell("pallet_count", row))
}

// FillResult is what one chunk's fill reports back to the orchestrator.
type FillResult struct {
	Success     bool
	NextFreeRow int
	DataStart   int
	DataEnd     int
	PalletsUsed int
}

// rowRange records one chunk's written data span for later SUM ranges.
type rowRange struct {
	start, end int
}

// categoryRow captures one written data row for the category-split
// summary: its description, pallet weight and per-column sums.
type categoryRow struct {
	description string
	pallets     float64
	sums        map[string]float64
}

// sheetAccumulator threads the running state across a sheet's chunks:
// recorded data ranges, the sheet-wide pallet total and the weight
// totals the extra configured rows consume.
type sheetAccumulator struct {
	grandTotalPallets int
	dataRanges        []rowRange
	rows              []categoryRow
	netTotal          float64
	grossTotal        float64
	cbmTotal          float64
}

// fillRequest bundles the inputs for one chunk fill.
type fillRequest struct {
	Sheet      string
	Layout     *config.SheetLayout
	Header     *HeaderInfo
	Source     rowSource
	SourceKind config.SourceKind
	OwnInsert  bool // single-table path: the fill inserts its own body rows
	Custom     bool // custom aggregation overrides for amount / unit price
	FOB        bool // FOB mode: description reads combined_description
}

// columnBinding resolves one output column to its mapping rule.
type columnBinding struct {
	id   string
	rule *config.MappingRule
}

// bindColumns maps 1-based columns to their mapping rules through the
// header's column map. Rules whose id is absent from the header are
// logged and skipped, not fatal.
func bindColumns(layout *config.SheetLayout, header *HeaderInfo) map[int]columnBinding {
	bound := make(map[int]columnBinding)
	for id := range layout.MappingRules {
		rule := layout.MappingRules[id]
		col, ok := header.ColumnMap[id]
		if !ok {
			slog.Warn("Mapping rule targets a column missing from the header", "id", id)
			continue
		}
		bound[col] = columnBinding{id: id, rule: &rule}
	}
	return bound
}

// fillChunk writes one chunk's blank/data/footer rows under an already
// written header, resolving each cell through the precedence ladder.
func fillChunk(f ExcelFile, req fillRequest, acc *sheetAccumulator, styles *styleCache) FillResult {
	layout := req.Layout
	header := req.Header

	staticRows := initialStaticRowCount(layout)
	numRows := max(req.Source.Len(), staticRows)
	if numRows == 0 {
		return FillResult{Success: true, NextFreeRow: header.FirstRow + headerHeight(layout)}
	}

	current := header.FirstRow + headerHeight(layout)

	if req.OwnInsert {
		body := numRows + 1 // footer
		if layout.BlankAfterHeader != nil {
			body++
		}
		if layout.BlankBeforeFooter != nil {
			body++
		}
		ok, _ := insertBlock(f, req.Sheet, current, body, header.NumColumns)
		if !ok {
			return FillResult{Success: false, NextFreeRow: current + body}
		}
	}

	if layout.BlankAfterHeader != nil {
		if err := writeBlankRow(f, req.Sheet, current, layout.BlankAfterHeader, 0, layout, header, styles); err != nil {
			slog.Error("Failed to write blank row after header", "sheet", req.Sheet, "error", err)
			return FillResult{Success: false, NextFreeRow: current}
		}
		current++
	}

	dataStart := current
	dataEnd := current + numRows - 1

	bound := bindColumns(layout, header)
	chunkPallets := countChunkPallets(req.Source)

	descFromData := false
	var descValues, palletNoValues []string

	// Pallet ordinal restarts at every chunk, so each table's first
	// packed row reads "1-<total>".
	palletOrder := 0

	for i := 0; i < numRows; i++ {
		row := dataStart + i
		palletCount := req.Source.PalletCount(i)
		if palletCount > 0 {
			palletOrder++
		}

		catRow := categoryRow{pallets: palletCount, sums: make(map[string]float64)}

		for col := 1; col <= header.NumColumns; col++ {
			binding, hasRule := bound[col]

			value, fromData := resolveCell(req, binding, hasRule, header, col, i, row, palletOrder, chunkPallets)

			if col == header.Roles.Description {
				text := fmt.Sprintf("%v", value)
				if value == nil {
					text = ""
				}
				descValues = append(descValues, text)
				catRow.description = text
				if fromData {
					descFromData = true
				}
			}
			if col == header.Roles.PalletNo && col != header.Roles.PalletInfo {
				text := fmt.Sprintf("%v", value)
				if value == nil {
					text = ""
				}
				palletNoValues = append(palletNoValues, text)
			}
			if hasRule {
				if n, isNum := value.(int); isNum {
					catRow.sums[binding.id] += float64(n)
				} else if n, isNum := value.(float64); isNum {
					catRow.sums[binding.id] += n
				}
			}

			if err := writeDataCell(f, req.Sheet, layout, header, col, row, i == 0, i == numRows-1, value, binding, styles); err != nil {
				slog.Error("Failed to write data cell", "cell", cellName(col, row), "error", err)
			}
		}

		if layout.Styling.RowHeights.Data > 0 {
			if err := f.SetRowHeight(req.Sheet, row, layout.Styling.RowHeights.Data); err != nil {
				slog.Warn("Failed to set data row height", "row", row, "error", err)
			}
		}

		acc.rows = append(acc.rows, catRow)
	}

	accumulateWeights(layout, header, acc, req.Source, numRows)

	// Vertical merges over contiguous equal values. The description merge
	// is all-or-nothing per chunk: one live data value suppresses it.
	if header.Roles.Description > 0 && !descFromData && numRows > 1 {
		mergeContiguous(f, req.Sheet, header.Roles.Description, dataStart, descValues, layout, styles)
	}
	if header.Roles.PalletNo > 0 && header.Roles.PalletNo != header.Roles.PalletInfo && numRows > 1 {
		mergeContiguous(f, req.Sheet, header.Roles.PalletNo, dataStart, palletNoValues, layout, styles)
	}

	current = dataEnd + 1

	if layout.BlankBeforeFooter != nil {
		if err := writeBlankRow(f, req.Sheet, current, layout.BlankBeforeFooter, layout.Styling.RowHeights.BeforeFooter, layout, header, styles); err != nil {
			slog.Error("Failed to write blank row before footer", "sheet", req.Sheet, "error", err)
			return FillResult{Success: false, NextFreeRow: current}
		}
		current++
	}

	// Footer pallet label: chunk-local total for packed tables, the
	// sheet-wide grand total for aggregated sources.
	palletLabelCount := chunkPallets
	if req.SourceKind == config.SourceAggregation || req.SourceKind == config.SourceFobAggregation {
		palletLabelCount = acc.grandTotalPallets
	}

	if err := writeChunkFooter(f, req.Sheet, layout, header, current, dataStart, dataEnd, palletLabelCount, styles); err != nil {
		slog.Error("Failed to write chunk footer", "sheet", req.Sheet, "row", current, "error", err)
		return FillResult{Success: false, NextFreeRow: current}
	}

	acc.dataRanges = append(acc.dataRanges, rowRange{start: dataStart, end: dataEnd})

	return FillResult{
		Success:     true,
		NextFreeRow: current + 1,
		DataStart:   dataStart,
		DataEnd:     dataEnd,
		PalletsUsed: chunkPallets,
	}
}

func countChunkPallets(source rowSource) int {
	total := 0.0
	for i := 0; i < source.Len(); i++ {
		total += source.PalletCount(i)
	}
	return int(total)
}

// resolveCell applies the precedence ladder for one cell. The second
// return reports whether the value came from a genuinely present data
// field, which the description-merge rule depends on.
func resolveCell(req fillRequest, binding columnBinding, hasRule bool, header *HeaderInfo, col, ordinal, row int, palletOrder, chunkPallets int) (interface{}, bool) {
	// 1. Initial static label owns its cell outright.
	if hasRule && binding.rule.Kind == config.RuleInitialStaticRows {
		if ordinal < len(binding.rule.InitialRows) {
			return binding.rule.InitialRows[ordinal], false
		}
		return nil, false
	}

	// 2. Row ordinal.
	if col == header.Roles.RowOrdinal && (!hasRule || binding.rule.Kind != config.RuleValueKey) {
		return ordinal + 1, false
	}

	// 3. Pallet label, incremented only on rows that carry a pallet.
	if col == header.Roles.PalletInfo && req.SourceKind == config.SourceMultiTable {
		if req.Source.PalletCount(ordinal) > 0 {
			return fmt.Sprintf("%d-%d", palletOrder, chunkPallets), false
		}
		return nil, false
	}

	// Custom aggregation overrides amount and unit price for exactly
	// these two role columns, bypassing their configured rules.
	if req.Custom {
		if col == header.Roles.Amount {
			if v := req.Source.Field(ordinal, "amount_sum"); !isBlank(v) {
				return coerceNumeric(v), true
			}
		}
		if col == header.Roles.UnitPrice && header.Roles.Amount > 0 && header.Roles.Quantity > 0 {
			return formulaValue(fmt.Sprintf("%s%d/%s%d",
				columnName(header.Roles.Amount), row,
				columnName(header.Roles.Quantity), row)), false
		}
	}

	if !hasRule {
		return nil, false
	}

	switch binding.rule.Kind {
	case config.RuleFormula:
		return resolveFormula(binding.rule, header, row), false

	case config.RuleKeyIndex:
		v := req.Source.KeyPart(ordinal, binding.rule.KeyIndex)
		return applyFallback(binding.rule, v)

	case config.RuleValueKey:
		// FOB rows carry a combined description that supersedes the
		// configured field when present.
		if req.FOB && col == header.Roles.Description {
			if v := req.Source.Field(ordinal, "combined_description"); !isBlank(v) {
				return coerceNumeric(v), true
			}
		}
		v := req.Source.Field(ordinal, binding.rule.ValueKey)
		return applyFallback(binding.rule, v)

	case config.RuleStatic:
		return binding.rule.StaticValue, false
	}
	return nil, false
}

func applyFallback(rule *config.MappingRule, v interface{}) (interface{}, bool) {
	if !isBlank(v) {
		return coerceNumeric(v), true
	}
	if rule.FallbackOnNone != nil {
		return rule.FallbackOnNone, false
	}
	if rule.StaticValue != nil {
		return rule.StaticValue, false
	}
	return nil, false
}

// formulaString wraps a formula so writeDataCell can tell it apart from a
// literal string value.
type formulaString string

func formulaValue(expr string) formulaString {
	return formulaString(strings.TrimPrefix(expr, "="))
}

// resolveFormula substitutes {col_ref_N} and {row} placeholders. An input
// column missing from the header degrades to a visible marker.
func resolveFormula(rule *config.MappingRule, header *HeaderInfo, row int) interface{} {
	expr := rule.Template
	for i, input := range rule.Inputs {
		col, ok := header.ColumnMap[input]
		if !ok {
			slog.Warn("Formula input not present in header", "input", input)
			return markerRef
		}
		placeholder := fmt.Sprintf("{col_ref_%d}", i+1)
		expr = strings.ReplaceAll(expr, placeholder, columnName(col))
	}
	expr = strings.ReplaceAll(expr, "{row}", fmt.Sprintf("%d", row))
	if strings.Contains(expr, "{") {
		slog.Warn("Formula template has unresolved placeholders", "template", rule.Template)
		return markerErr
	}
	return formulaValue(expr)
}

// writeDataCell writes one resolved value with the border policy: full
// grid columns get a closed box, the rest only side borders, with the
// first and last data rows closing the table top and bottom.
func writeDataCell(f ExcelFile, sheet string, layout *config.SheetLayout, header *HeaderInfo, col, row int, firstRow, lastRow bool, value interface{}, binding columnBinding, styles *styleCache) error {
	cell := cellName(col, row)

	id := binding.id
	fullGrid := false
	forceText := false
	for _, gid := range layout.Styling.FullGridIDs {
		if gid == id {
			fullGrid = true
			break
		}
	}
	for _, tid := range layout.Styling.ForceTextIDs {
		if tid == id {
			forceText = true
			break
		}
	}

	border := borderSpec{Left: true, Right: true, Top: firstRow, Bottom: lastRow}
	if fullGrid {
		border = fullBorder
	}

	style := cellStyle{
		Font:      layout.Styling.DefaultFont,
		Alignment: layout.Styling.DefaultAlignment,
		Border:    border,
	}
	if cs, ok := layout.Styling.ColumnStyles[id]; ok {
		if cs.Font != nil {
			style.Font = *cs.Font
		}
		if cs.Alignment != nil {
			style.Alignment = *cs.Alignment
		}
		style.NumberFormat = cs.NumberFormat
	}
	if forceText {
		style.NumberFormat = fmtText
	}

	styleID, err := styles.id(style)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, cell, cell, styleID); err != nil {
		return err
	}

	switch v := value.(type) {
	case nil:
		return nil
	case formulaString:
		return f.SetCellFormula(sheet, cell, string(v))
	default:
		if forceText {
			return f.SetCellValue(sheet, cell, fmt.Sprintf("%v", v))
		}
		return f.SetCellValue(sheet, cell, v)
	}
}

// writeBlankRow writes a configured spacer row: static content addressed
// by column id, its merges and height. fallbackHeight applies when the
// row config does not set its own.
func writeBlankRow(f ExcelFile, sheet string, row int, blank *config.BlankRowConfig, fallbackHeight float64, layout *config.SheetLayout, header *HeaderInfo, styles *styleCache) error {
	styleID, err := styles.id(cellStyle{
		Font:      layout.Styling.DefaultFont,
		Alignment: layout.Styling.DefaultAlignment,
		Border:    borderSpec{Left: true, Right: true},
	})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, cellName(1, row), cellName(header.NumColumns, row), styleID); err != nil {
		return err
	}

	for id, text := range blank.Content {
		col, ok := header.ColumnMap[id]
		if !ok {
			slog.Warn("Blank row content targets unknown column", "id", id)
			continue
		}
		if err := f.SetCellValue(sheet, cellName(col, row), text); err != nil {
			return err
		}
	}

	if err := applyMergeRules(f, sheet, row, blank.MergeRules, styleID); err != nil {
		return err
	}
	height := blank.Height
	if height == 0 {
		height = fallbackHeight
	}
	if height > 0 {
		if err := f.SetRowHeight(sheet, row, height); err != nil {
			return err
		}
	}
	return nil
}

// mergeContiguous merges vertical runs of equal, non-blank values in one
// column of the just written data block.
func mergeContiguous(f ExcelFile, sheet string, col, startRow int, values []string, layout *config.SheetLayout, styles *styleCache) {
	styleID, err := styles.id(cellStyle{
		Font:      layout.Styling.DefaultFont,
		Alignment: config.AlignmentConfig{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    fullBorder,
	})
	if err != nil {
		slog.Warn("Could not register merge style", "error", err)
		styleID = 0
	}

	runStart := 0
	for i := 1; i <= len(values); i++ {
		if i < len(values) && values[i] == values[runStart] {
			continue
		}
		if i-runStart > 1 && strings.TrimSpace(values[runStart]) != "" {
			top := startRow + runStart
			bottom := startRow + i - 1
			if err := mergeWithStyle(f, sheet, col, top, col, bottom, styleID); err != nil {
				slog.Warn("Vertical value merge failed", "column", columnName(col), "error", err)
			} else if err := f.SetCellValue(sheet, cellName(col, top), values[runStart]); err != nil {
				slog.Warn("Could not restore merge anchor value", "error", err)
			}
		}
		runStart = i
	}
}

// accumulateWeights folds this chunk's net/gross/cbm into the sheet
// totals the configured extra rows consume.
func accumulateWeights(layout *config.SheetLayout, header *HeaderInfo, acc *sheetAccumulator, source rowSource, numRows int) {
	fieldFor := func(role config.ColumnRole, fallback string) string {
		if id, ok := layout.ColumnRoles[role]; ok {
			if rule, ok := layout.MappingRules[id]; ok && rule.Kind == config.RuleValueKey {
				return rule.ValueKey
			}
		}
		return fallback
	}
	netKey := fieldFor(config.RoleNet, "net")
	grossKey := fieldFor(config.RoleGross, "gross")
	cbmKey := fieldFor(config.RoleCBM, "cbm")

	for i := 0; i < numRows; i++ {
		acc.netTotal += asFloat(source.Field(i, netKey))
		acc.grossTotal += asFloat(source.Field(i, grossKey))
		acc.cbmTotal += asFloat(source.Field(i, cbmKey))
	}
}
