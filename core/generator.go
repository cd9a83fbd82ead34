package core

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"invoice-gen/config"
)

// defaultChunkSet is the chunk-set name the multi-table source kind draws
// from when the sheet map does not name one.
const defaultChunkSet = "processed_tables"

type Generator struct {
	Context *GenerationContext
}

func NewGenerator(ctx *GenerationContext) *Generator {
	return &Generator{Context: ctx}
}

// errorSuffixPath derives the crash-save name: report.xlsx -> report_ERROR.xlsx.
func errorSuffixPath(outputPath string) string {
	ext := filepath.Ext(outputPath)
	return strings.TrimSuffix(outputPath, ext) + "_ERROR" + ext
}

// Generate runs the whole pipeline against the template at templatePath
// and saves to outputPath. The workbook is saved even when one or more
// sheets fail; only an unusable template or a failing save is fatal.
func (g *Generator) Generate(templatePath, outputPath string) (err error) {
	f, err := openExcelFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to open template: %w", err)
	}
	defer func(f ExcelFile) {
		if closeErr := f.Close(); closeErr != nil {
			if err == nil {
				err = fmt.Errorf("failed to close template file: %w", closeErr)
			} else {
				err = fmt.Errorf("%w; (cleanup error: %v)", err, closeErr)
			}
		}
	}(f)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Unexpected failure, saving partial workbook", "error", r)
			if saveErr := f.SaveAs(errorSuffixPath(outputPath)); saveErr != nil {
				slog.Error("Crash save failed", "error", saveErr)
			}
			err = fmt.Errorf("unexpected failure during generation: %v", r)
		}
	}()

	allOK := g.ProcessWorkbook(f)

	// UX: reset view to A1 for all sheets and land on the first processed
	// sheet when the workbook opens.
	if sheets := f.GetSheetList(); len(sheets) > 0 {
		for _, sheet := range sheets {
			_ = f.SetSelection(sheet, "A1")
		}
		active := 0
		if processed := g.Context.Layout.SheetsToProcess; len(processed) > 0 {
			if idx, err := f.GetSheetIndex(processed[0]); err == nil && idx >= 0 {
				active = idx
			}
		}
		f.SetActiveSheet(active)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save output: %w", err)
	}
	slog.Info("Workbook saved", "path", outputPath)

	if !allOK {
		return fmt.Errorf("generation finished with failed sheets, output saved to %s", outputPath)
	}
	return nil
}

// ProcessWorkbook fills every configured sheet on an already opened
// workbook. It returns false when any sheet failed; processing always
// continues to the next sheet.
func (g *Generator) ProcessWorkbook(f ExcelFile) bool {
	layout := g.Context.Layout
	styles := newStyleCache(f)

	stored := storeRowMerges(f, layout.SheetsToProcess, defaultMergeThreshold)

	allOK := true
	for _, sheetName := range layout.SheetsToProcess {
		if err := g.processSheet(f, sheetName, styles); err != nil {
			slog.Error("Sheet processing failed", "sheet", sheetName, "error", err)
			allOK = false
			continue
		}
		slog.Info("Sheet processed", "sheet", sheetName)
	}

	restored, failedRestores := restoreRowMerges(f, stored, defaultMergeSearchRange)
	if failedRestores > 0 {
		slog.Warn("Some merges could not be restored", "restored", restored, "failed", failedRestores)
	}

	applyTextReplacements(f, layout.TextReplacements, g.Context.Data)
	if g.Context.FOB {
		applyFobReplacements(f, layout.SheetsToProcess)
	}

	return allOK
}

func (g *Generator) processSheet(f ExcelFile, sheetName string, styles *styleCache) error {
	layout := g.Context.Layout
	sheetLayout, err := g.Context.Provider.GetSheetLayout(sheetName)
	if err != nil {
		return err
	}
	if sheetLayout.StartRow < 1 {
		return fmt.Errorf("sheet '%s' has no usable start row", sheetName)
	}

	sourceKey, ok := layout.SheetDataMap[sheetName]
	if !ok {
		return fmt.Errorf("sheet '%s' has no data source mapping", sheetName)
	}

	switch config.SourceKind(sourceKey) {
	case config.SourceAggregation, config.SourceFobAggregation:
		entries := g.Context.aggregationEntries(config.SourceKind(sourceKey))
		return g.processSingleTable(f, sheetName, sheetLayout, aggregationSource{entries: entries}, config.SourceKind(sourceKey), styles)

	case config.SourceMultiTable:
		return g.processMultiTable(f, sheetName, sheetLayout, defaultChunkSet, styles)

	default:
		// A bare chunk key selects one packed table for a single-table
		// sheet.
		chunk, ok := g.Context.Data.Chunks[defaultChunkSet][sourceKey]
		if !ok {
			return fmt.Errorf("sheet '%s' references unknown chunk '%s'", sheetName, sourceKey)
		}
		return g.processSingleTable(f, sheetName, sheetLayout, chunkSource{chunk: chunk}, config.SourceMultiTable, styles)
	}
}

// grandTotalPallets sums pallet counts across every packed table; the
// aggregated sheets label their footers with this sheet-wide figure.
func (g *Generator) grandTotalPallets() int {
	total := 0.0
	for _, chunk := range g.Context.Data.Chunks[defaultChunkSet] {
		for i := 0; i < chunk.RowCount(); i++ {
			total += asFloat(chunk.Cell("pallet_count", i))
		}
	}
	return int(total)
}

func (g *Generator) processSingleTable(f ExcelFile, sheetName string, sheetLayout *config.SheetLayout, source rowSource, kind config.SourceKind, styles *styleCache) error {
	header, err := writeHeader(f, sheetName, sheetLayout.StartRow, sheetLayout, styles)
	if err != nil {
		return fmt.Errorf("header write failed: %w", err)
	}

	acc := &sheetAccumulator{grandTotalPallets: g.grandTotalPallets()}

	result := fillChunk(f, fillRequest{
		Sheet:      sheetName,
		Layout:     sheetLayout,
		Header:     header,
		Source:     source,
		SourceKind: kind,
		OwnInsert:  true,
		Custom:     g.Context.Custom,
		FOB:        g.Context.FOB,
	}, acc, styles)
	if !result.Success {
		return fmt.Errorf("chunk fill failed")
	}

	next := result.NextFreeRow + sheetLayout.RowSpacing
	if _, err := writeExtraRows(f, sheetName, sheetLayout, next, acc, styles); err != nil {
		return fmt.Errorf("extra rows failed: %w", err)
	}

	writeMarkerValues(f, sheetName, sheetLayout, acc)

	if err := setColumnWidths(f, sheetName, sheetLayout.Styling.ColumnWidths, header.ColumnMap); err != nil {
		return err
	}
	return nil
}

func (g *Generator) processMultiTable(f ExcelFile, sheetName string, sheetLayout *config.SheetLayout, chunkSet string, styles *styleCache) error {
	chunks := g.Context.Data.Chunks[chunkSet]
	chunkKeys := g.Context.Data.ChunkKeys[chunkSet]
	if len(chunkKeys) == 0 {
		return fmt.Errorf("no chunks available in set '%s'", chunkSet)
	}

	plan := planRows(sheetLayout, chunkKeys, chunks)
	if plan.Total == 0 {
		return fmt.Errorf("all chunks in set '%s' are empty", chunkSet)
	}

	ok, _ := insertBlock(f, sheetName, sheetLayout.StartRow, plan.Total, headerWidth(sheetLayout))
	if !ok {
		return fmt.Errorf("bulk insert of %d rows failed", plan.Total)
	}

	acc := &sheetAccumulator{grandTotalPallets: g.grandTotalPallets()}
	writePointer := sheetLayout.StartRow

	var lastHeader *HeaderInfo
	written := 0
	for _, key := range chunkKeys {
		if plan.PerChunk[key] == 0 {
			continue
		}

		header, err := writeHeader(f, sheetName, writePointer, sheetLayout, styles)
		if err != nil {
			return fmt.Errorf("header write for chunk '%s' failed: %w", key, err)
		}

		result := fillChunk(f, fillRequest{
			Sheet:      sheetName,
			Layout:     sheetLayout,
			Header:     header,
			Source:     chunkSource{chunk: chunks[key]},
			SourceKind: config.SourceMultiTable,
			Custom:     g.Context.Custom,
			FOB:        g.Context.FOB,
		}, acc, styles)
		if !result.Success {
			// Best-effort pointer estimate keeps later chunks from
			// landing at wildly wrong offsets.
			slog.Error("Chunk fill failed, continuing with planned offset", "sheet", sheetName, "chunk", key)
			writePointer += plan.PerChunk[key]
		} else {
			writePointer = result.NextFreeRow
		}
		lastHeader = header
		written++

		if written < plan.NumChunks {
			if err := writeSpacerRow(f, sheetName, writePointer, header); err != nil {
				slog.Warn("Spacer row failed", "sheet", sheetName, "row", writePointer, "error", err)
			}
			writePointer++
		}
	}

	if lastHeader == nil {
		return fmt.Errorf("no chunk produced a header")
	}

	if plan.NumChunks > 1 {
		if err := writeGrandTotalRow(f, sheetName, sheetLayout, lastHeader, writePointer, acc.dataRanges, acc.grandTotalPallets, styles); err != nil {
			return fmt.Errorf("grand total row failed: %w", err)
		}
		writePointer++
	}

	if sheetLayout.Summary && plan.NumChunks > 0 {
		next, err := writeSummaryRows(f, sheetName, sheetLayout, lastHeader, writePointer, acc, styles)
		if err != nil {
			return fmt.Errorf("summary rows failed: %w", err)
		}
		writePointer = next
	}

	writePointer += sheetLayout.RowSpacing

	if _, err := writeExtraRows(f, sheetName, sheetLayout, writePointer, acc, styles); err != nil {
		return fmt.Errorf("extra rows failed: %w", err)
	}

	writeMarkerValues(f, sheetName, sheetLayout, acc)

	if err := setColumnWidths(f, sheetName, sheetLayout.Styling.ColumnWidths, lastHeader.ColumnMap); err != nil {
		return err
	}
	return nil
}
