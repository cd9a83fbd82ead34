package core

import (
	"testing"
)

func TestStoreRowMergesThreshold(t *testing.T) {
	f, wb := newTestWorkbook()

	// Masthead merge above the threshold, a qualifying merge below it,
	// and a multi-row merge that must be ignored.
	if err := wb.MergeCell(testSheet, "A2", "C2"); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if err := wb.MergeCell(testSheet, "A20", "C20"); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if err := wb.MergeCell(testSheet, "E20", "E22"); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if err := wb.SetCellValue(testSheet, "A20", "SAY TOTAL US DOLLARS ONLY"); err != nil {
		t.Fatalf("set value failed: %v", err)
	}

	stored := storeRowMerges(f, []string{testSheet}, defaultMergeThreshold)

	records := stored[testSheet]
	if len(records) != 1 {
		t.Fatalf("expected exactly one stored merge, got %d", len(records))
	}
	if records[0].ColSpan != 3 {
		t.Fatalf("expected span 3, got %d", records[0].ColSpan)
	}
	if records[0].Value != "SAY TOTAL US DOLLARS ONLY" {
		t.Fatalf("unexpected stored value %q", records[0].Value)
	}
}

func TestRestoreRowMergesByContent(t *testing.T) {
	f, wb := newTestWorkbook()

	if err := wb.MergeCell(testSheet, "A20", "C20"); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if err := wb.SetCellValue(testSheet, "A20", "SAY TOTAL US DOLLARS ONLY"); err != nil {
		t.Fatalf("set value failed: %v", err)
	}
	if err := wb.SetRowHeight(testSheet, 20, 28); err != nil {
		t.Fatalf("set height failed: %v", err)
	}

	stored := storeRowMerges(f, []string{testSheet}, defaultMergeThreshold)

	// Simulate row insertion shifting the content down: the merge is gone
	// and the value now lives at a different row.
	if err := wb.UnmergeCell(testSheet, "A20", "C20"); err != nil {
		t.Fatalf("unmerge failed: %v", err)
	}
	if err := wb.SetCellValue(testSheet, "A20", ""); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if err := wb.SetCellValue(testSheet, "A27", "SAY TOTAL US DOLLARS ONLY"); err != nil {
		t.Fatalf("set value failed: %v", err)
	}

	restored, failed := restoreRowMerges(f, stored, defaultMergeSearchRange)
	if restored != 1 || failed != 0 {
		t.Fatalf("expected 1 restored / 0 failed, got %d / %d", restored, failed)
	}

	merges, err := wb.GetMergeCells(testSheet)
	if err != nil {
		t.Fatalf("failed to list merges: %v", err)
	}
	found := false
	for _, mc := range merges {
		if mc.GetStartAxis() == "A27" && mc.GetEndAxis() == "C27" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected restored merge A27:C27, merges: %v", merges)
	}

	if got, _ := wb.GetCellValue(testSheet, "A27"); got != "SAY TOTAL US DOLLARS ONLY" {
		t.Fatalf("anchor value not rewritten, got %q", got)
	}
	if h, _ := wb.GetRowHeight(testSheet, 27); h != 28 {
		t.Fatalf("row height not restored, got %v", h)
	}
}

func TestRestoreRowMergesValueMissing(t *testing.T) {
	f, _ := newTestWorkbook()

	stored := map[string][]StoredMerge{
		testSheet: {{ColSpan: 3, Value: "NOWHERE TO BE FOUND"}},
	}
	restored, failed := restoreRowMerges(f, stored, defaultMergeSearchRange)
	if restored != 0 || failed != 1 {
		t.Fatalf("expected 0 restored / 1 failed, got %d / %d", restored, failed)
	}
}

func TestRestoreSkipsBlankAndSingleCell(t *testing.T) {
	f, _ := newTestWorkbook()

	stored := map[string][]StoredMerge{
		testSheet: {
			{ColSpan: 1, Value: "SINGLE"},
			{ColSpan: 4, Value: "   "},
		},
	}
	restored, failed := restoreRowMerges(f, stored, defaultMergeSearchRange)
	if restored != 0 || failed != 0 {
		t.Fatalf("skipped records must not count, got %d / %d", restored, failed)
	}
}
