package core

import (
	"testing"

	"invoice-gen/config"
)

func aggEntries(rows []map[string]interface{}, keys [][]interface{}) []AggregationEntry {
	entries := make([]AggregationEntry, len(rows))
	for i, values := range rows {
		var key CompositeKey
		if i < len(keys) {
			key = CompositeKey{Parts: keys[i]}
		}
		entries[i] = AggregationEntry{Key: key, Values: values}
	}
	return entries
}

func TestFillChunkInitialStaticLabels(t *testing.T) {
	f, wb := newTestWorkbook()
	layout := &config.SheetLayout{
		StartRow: 2,
		HeaderCells: []config.HeaderCell{
			{Row: 0, Col: 0, Text: "Mark & Nº", ID: "mark"},
			{Row: 0, Col: 1, Text: "SF", ID: "sf"},
		},
		MappingRules: map[string]config.MappingRule{
			"mark": {Kind: config.RuleInitialStaticRows, InitialRows: []string{"MARK A", "MARK B"}},
			"sf":   {Kind: config.RuleValueKey, ValueKey: "sqft_sum"},
		},
		Footer: config.FooterConfig{SumColumnIDs: []string{"sf"}},
	}
	styles := newStyleCache(f)

	header, err := writeHeader(f, testSheet, 2, layout, styles)
	if err != nil {
		t.Fatalf("header write failed: %v", err)
	}

	rows := make([]map[string]interface{}, 5)
	for i := range rows {
		rows[i] = map[string]interface{}{"sqft_sum": float64((i + 1) * 10)}
	}
	acc := &sheetAccumulator{}
	result := fillChunk(f, fillRequest{
		Sheet:      testSheet,
		Layout:     layout,
		Header:     header,
		Source:     aggregationSource{entries: aggEntries(rows, nil)},
		SourceKind: config.SourceAggregation,
	}, acc, styles)
	if !result.Success {
		t.Fatalf("fill failed")
	}

	// Labels own the first two rows outright; the rest stay blank.
	for i, want := range []string{"MARK A", "MARK B", "", "", ""} {
		got, _ := wb.GetCellValue(testSheet, cellName(1, 3+i))
		if got != want {
			t.Fatalf("row %d label: got %q, want %q", 3+i, got, want)
		}
	}
	if result.DataStart != 3 || result.DataEnd != 7 {
		t.Fatalf("data span wrong: %d..%d", result.DataStart, result.DataEnd)
	}
}

func TestFillChunkPalletLabelDuality(t *testing.T) {
	layout := &config.SheetLayout{
		StartRow: 2,
		HeaderCells: []config.HeaderCell{
			{Row: 0, Col: 0, Text: "DESCRIPTION", ID: "desc"},
			{Row: 0, Col: 1, Text: "SF", ID: "sf"},
			{Row: 0, Col: 2, Text: "PALLET", ID: "pallet"},
		},
		MappingRules: map[string]config.MappingRule{
			"sf": {Kind: config.RuleValueKey, ValueKey: "sqft_sum"},
		},
		Footer: config.FooterConfig{
			SumColumnIDs:  []string{"sf"},
			PalletCountID: "pallet",
		},
	}

	fill := func(kind config.SourceKind, source rowSource) string {
		f, wb := newTestWorkbook()
		styles := newStyleCache(f)
		header, err := writeHeader(f, testSheet, 2, layout, styles)
		if err != nil {
			t.Fatalf("header write failed: %v", err)
		}
		acc := &sheetAccumulator{grandTotalPallets: 40}
		result := fillChunk(f, fillRequest{
			Sheet:      testSheet,
			Layout:     layout,
			Header:     header,
			Source:     source,
			SourceKind: kind,
		}, acc, styles)
		if !result.Success {
			t.Fatalf("fill failed for kind %s", kind)
		}
		got, _ := wb.GetCellValue(testSheet, cellName(3, result.DataEnd+1))
		return got
	}

	chunk := TableChunk{
		"sqft_sum":     {10.0, 20.0, 30.0},
		"pallet_count": {2.0, 2.0, 1.0},
	}
	if got := fill(config.SourceMultiTable, chunkSource{chunk: chunk}); got != "5 PALLETS" {
		t.Fatalf("packed table footer should use the chunk total, got %q", got)
	}

	rows := []map[string]interface{}{
		{"sqft_sum": 10.0, "pallet_count": 2.0},
		{"sqft_sum": 20.0, "pallet_count": 3.0},
	}
	if got := fill(config.SourceAggregation, aggregationSource{entries: aggEntries(rows, nil)}); got != "40 PALLETS" {
		t.Fatalf("aggregated footer should use the grand total, got %q", got)
	}
}

func TestFillChunkPalletOrdinalRestartsPerChunk(t *testing.T) {
	f, wb := newTestWorkbook()
	layout := &config.SheetLayout{
		StartRow: 2,
		HeaderCells: []config.HeaderCell{
			{Row: 0, Col: 0, Text: "PALLET\nNO.", ID: "pallet_no"},
			{Row: 0, Col: 1, Text: "SF", ID: "sf"},
		},
		MappingRules: map[string]config.MappingRule{
			"sf": {Kind: config.RuleValueKey, ValueKey: "sqft_sum"},
		},
		Footer: config.FooterConfig{SumColumnIDs: []string{"sf"}},
	}
	styles := newStyleCache(f)
	acc := &sheetAccumulator{}

	fill := func(startRow int, chunk TableChunk) FillResult {
		header, err := writeHeader(f, testSheet, startRow, layout, styles)
		if err != nil {
			t.Fatalf("header write failed: %v", err)
		}
		result := fillChunk(f, fillRequest{
			Sheet:      testSheet,
			Layout:     layout,
			Header:     header,
			Source:     chunkSource{chunk: chunk},
			SourceKind: config.SourceMultiTable,
		}, acc, styles)
		if !result.Success {
			t.Fatalf("fill failed for chunk at row %d", startRow)
		}
		return result
	}

	first := fill(2, TableChunk{
		"sqft_sum":     {10.0, 20.0},
		"pallet_count": {1.0, 1.0},
	})
	second := fill(first.NextFreeRow, TableChunk{
		"sqft_sum":     {30.0},
		"pallet_count": {1.0},
	})

	for row, want := range map[int]string{
		first.DataStart:     "1-2",
		first.DataStart + 1: "2-2",
		second.DataStart:    "1-1",
	} {
		got, _ := wb.GetCellValue(testSheet, cellName(1, row))
		if got != want {
			t.Fatalf("pallet label at row %d: got %q, want %q", row, got, want)
		}
	}
}

func TestFillChunkFobDescriptionOverride(t *testing.T) {
	layout := &config.SheetLayout{
		StartRow: 2,
		HeaderCells: []config.HeaderCell{
			{Row: 0, Col: 0, Text: "DESCRIPTION", ID: "desc"},
			{Row: 0, Col: 1, Text: "SF", ID: "sf"},
		},
		MappingRules: map[string]config.MappingRule{
			"desc": {Kind: config.RuleValueKey, ValueKey: "description"},
			"sf":   {Kind: config.RuleValueKey, ValueKey: "sqft_sum"},
		},
		Footer: config.FooterConfig{SumColumnIDs: []string{"sf"}},
	}
	rows := []map[string]interface{}{
		{
			"description":          "BUFFALO SPLIT",
			"combined_description": "BUFFALO SPLIT / WET BLUE",
			"sqft_sum":             10.0,
		},
	}

	fill := func(fob bool) string {
		f, wb := newTestWorkbook()
		styles := newStyleCache(f)
		header, err := writeHeader(f, testSheet, 2, layout, styles)
		if err != nil {
			t.Fatalf("header write failed: %v", err)
		}
		result := fillChunk(f, fillRequest{
			Sheet:      testSheet,
			Layout:     layout,
			Header:     header,
			Source:     aggregationSource{entries: aggEntries(rows, nil)},
			SourceKind: config.SourceFobAggregation,
			FOB:        fob,
		}, &sheetAccumulator{}, styles)
		if !result.Success {
			t.Fatalf("fill failed")
		}
		got, _ := wb.GetCellValue(testSheet, "A3")
		return got
	}

	if got := fill(false); got != "BUFFALO SPLIT" {
		t.Fatalf("plain description expected, got %q", got)
	}
	if got := fill(true); got != "BUFFALO SPLIT / WET BLUE" {
		t.Fatalf("combined description expected in FOB mode, got %q", got)
	}
}

func TestDescriptionMergeAllOrNothing(t *testing.T) {
	layout := &config.SheetLayout{
		StartRow: 2,
		HeaderCells: []config.HeaderCell{
			{Row: 0, Col: 0, Text: "DESCRIPTION", ID: "desc"},
			{Row: 0, Col: 1, Text: "SF", ID: "sf"},
		},
		MappingRules: map[string]config.MappingRule{
			"desc": {Kind: config.RuleValueKey, ValueKey: "description", FallbackOnNone: "STATIC"},
			"sf":   {Kind: config.RuleValueKey, ValueKey: "sqft_sum"},
		},
		Footer: config.FooterConfig{SumColumnIDs: []string{"sf"}},
	}

	countDescMerges := func(chunk TableChunk) int {
		f, wb := newTestWorkbook()
		styles := newStyleCache(f)
		header, err := writeHeader(f, testSheet, 2, layout, styles)
		if err != nil {
			t.Fatalf("header write failed: %v", err)
		}
		result := fillChunk(f, fillRequest{
			Sheet:      testSheet,
			Layout:     layout,
			Header:     header,
			Source:     chunkSource{chunk: chunk},
			SourceKind: config.SourceMultiTable,
		}, &sheetAccumulator{}, styles)
		if !result.Success {
			t.Fatalf("fill failed")
		}
		merges, err := wb.GetMergeCells(testSheet)
		if err != nil {
			t.Fatalf("failed to list merges: %v", err)
		}
		count := 0
		for _, mc := range merges {
			start := mc.GetStartAxis()
			if start[0] == 'A' && start != "A2" { // below the header
				count++
			}
		}
		return count
	}

	// One live description suppresses the merge for the whole chunk.
	live := TableChunk{
		"description": {nil, "LIVE", nil},
		"sqft_sum":    {10.0, 20.0, 30.0},
	}
	if got := countDescMerges(live); got != 0 {
		t.Fatalf("live data should suppress the description merge, got %d merges", got)
	}

	// All fallback: the identical values collapse into one merge.
	static := TableChunk{
		"description": {nil, nil, nil},
		"sqft_sum":    {10.0, 20.0, 30.0},
	}
	if got := countDescMerges(static); got != 1 {
		t.Fatalf("uniform fallback should produce one merge, got %d", got)
	}
}

func TestFillChunkEndToEnd(t *testing.T) {
	f, wb := newTestWorkbook()
	layout := &config.SheetLayout{
		StartRow: 10,
		HeaderCells: []config.HeaderCell{
			{Row: 0, Col: 0, Text: "PO", ID: "po"},
			{Row: 0, Col: 1, Text: "ITEM", ID: "item"},
			{Row: 0, Col: 2, Text: "SF", ID: "sf"},
			{Row: 0, Col: 3, Text: "PRICE", ID: "price"},
			{Row: 0, Col: 4, Text: "AMOUNT", ID: "amount"},
		},
		MappingRules: map[string]config.MappingRule{
			"po":    {Kind: config.RuleKeyIndex, KeyIndex: 0},
			"item":  {Kind: config.RuleKeyIndex, KeyIndex: 1},
			"sf":    {Kind: config.RuleValueKey, ValueKey: "sqft_sum"},
			"price": {Kind: config.RuleValueKey, ValueKey: "unit_price"},
			"amount": {
				Kind:     config.RuleFormula,
				Template: "{col_ref_1}{row}*{col_ref_2}{row}",
				Inputs:   []string{"sf", "price"},
			},
		},
		Footer: config.FooterConfig{
			TotalText:    "TOTAL:",
			SumColumnIDs: []string{"amount"},
		},
	}
	styles := newStyleCache(f)

	header, err := writeHeader(f, testSheet, 10, layout, styles)
	if err != nil {
		t.Fatalf("header write failed: %v", err)
	}

	sfs := []float64{10, 20, 30}
	rows := make([]map[string]interface{}, 3)
	keys := make([][]interface{}, 3)
	for i := range rows {
		rows[i] = map[string]interface{}{"sqft_sum": sfs[i], "unit_price": 2.5}
		keys[i] = []interface{}{"PO-100", "ITEM-X"}
	}

	result := fillChunk(f, fillRequest{
		Sheet:      testSheet,
		Layout:     layout,
		Header:     header,
		Source:     aggregationSource{entries: aggEntries(rows, keys)},
		SourceKind: config.SourceAggregation,
	}, &sheetAccumulator{}, styles)
	if !result.Success {
		t.Fatalf("fill failed")
	}

	if result.DataStart != 11 || result.DataEnd != 13 {
		t.Fatalf("data span wrong: %d..%d", result.DataStart, result.DataEnd)
	}

	if got, _ := wb.GetCellValue(testSheet, "A11"); got != "PO-100" {
		t.Fatalf("key part not written: %q", got)
	}
	if got, _ := wb.GetCellValue(testSheet, "C12"); got != "20" {
		t.Fatalf("value key not written: %q", got)
	}

	for i := 0; i < 3; i++ {
		cell := cellName(5, 11+i)
		formula, err := wb.GetCellFormula(testSheet, cell)
		if err != nil {
			t.Fatalf("failed to read formula at %s: %v", cell, err)
		}
		want := cellName(3, 11+i) + "*" + cellName(4, 11+i)
		if formula != want {
			t.Fatalf("formula at %s: got %q, want %q", cell, formula, want)
		}
	}

	if got, _ := wb.GetCellValue(testSheet, "A14"); got != "TOTAL:" {
		t.Fatalf("footer label missing: %q", got)
	}
	formula, err := wb.GetCellFormula(testSheet, "E14")
	if err != nil || formula != "SUM(E11:E13)" {
		t.Fatalf("footer sum: got %q (err %v), want SUM(E11:E13)", formula, err)
	}
	if result.NextFreeRow != 15 {
		t.Fatalf("next free row: got %d, want 15", result.NextFreeRow)
	}
}

func TestBlankRowBeforeFooterHeightFallback(t *testing.T) {
	f, wb := newTestWorkbook()
	layout := &config.SheetLayout{
		StartRow: 2,
		HeaderCells: []config.HeaderCell{
			{Row: 0, Col: 0, Text: "DESCRIPTION", ID: "desc"},
			{Row: 0, Col: 1, Text: "SF", ID: "sf"},
		},
		MappingRules: map[string]config.MappingRule{
			"sf": {Kind: config.RuleValueKey, ValueKey: "sqft_sum"},
		},
		BlankBeforeFooter: &config.BlankRowConfig{},
		Footer:            config.FooterConfig{SumColumnIDs: []string{"sf"}},
	}
	layout.Styling.RowHeights.BeforeFooter = 18
	styles := newStyleCache(f)

	header, err := writeHeader(f, testSheet, 2, layout, styles)
	if err != nil {
		t.Fatalf("header write failed: %v", err)
	}
	rows := []map[string]interface{}{{"sqft_sum": 10.0}}
	result := fillChunk(f, fillRequest{
		Sheet:      testSheet,
		Layout:     layout,
		Header:     header,
		Source:     aggregationSource{entries: aggEntries(rows, nil)},
		SourceKind: config.SourceAggregation,
	}, &sheetAccumulator{}, styles)
	if !result.Success {
		t.Fatalf("fill failed")
	}

	// The blank row sits between the data span and the footer; with no
	// per-row height configured it takes the layout default.
	got, err := wb.GetRowHeight(testSheet, result.DataEnd+1)
	if err != nil {
		t.Fatalf("failed to read row height: %v", err)
	}
	if got != 18 {
		t.Fatalf("before-footer row height: got %v, want 18", got)
	}
}

func TestResolveFormulaMarkers(t *testing.T) {
	header := &HeaderInfo{ColumnMap: map[string]int{"sf": 3}}

	missing := &config.MappingRule{
		Kind:     config.RuleFormula,
		Template: "{col_ref_1}{row}*{col_ref_2}{row}",
		Inputs:   []string{"sf", "nope"},
	}
	if got := resolveFormula(missing, header, 5); got != markerRef {
		t.Fatalf("missing input should degrade to %s, got %v", markerRef, got)
	}

	leftover := &config.MappingRule{
		Kind:     config.RuleFormula,
		Template: "{col_ref_1}{row}*{mystery}",
		Inputs:   []string{"sf"},
	}
	if got := resolveFormula(leftover, header, 5); got != markerErr {
		t.Fatalf("unresolved placeholder should degrade to %s, got %v", markerErr, got)
	}

	good := &config.MappingRule{
		Kind:     config.RuleFormula,
		Template: "{col_ref_1}{row}*2",
		Inputs:   []string{"sf"},
	}
	if got := resolveFormula(good, header, 5); got != formulaString("C5*2") {
		t.Fatalf("expected formula C5*2, got %v", got)
	}
}
