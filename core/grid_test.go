package core

import "testing"

func TestCellName(t *testing.T) {
	cases := map[string]struct{ col, row int }{
		"A1":   {1, 1},
		"H16":  {8, 16},
		"AA10": {27, 10},
	}
	for want, in := range cases {
		if got := cellName(in.col, in.row); got != want {
			t.Errorf("cellName(%d, %d) = %q, want %q", in.col, in.row, got, want)
		}
	}
}

func TestColumnName(t *testing.T) {
	cases := map[int]string{1: "A", 8: "H", 26: "Z", 27: "AA"}
	for col, want := range cases {
		if got := columnName(col); got != want {
			t.Errorf("columnName(%d) = %q, want %q", col, got, want)
		}
	}
}

func TestParseCellRange(t *testing.T) {
	c1, r1, c2, r2, err := parseCellRange("A16:H200")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if c1 != 1 || r1 != 16 || c2 != 8 || r2 != 200 {
		t.Fatalf("unexpected bounds %d,%d,%d,%d", c1, r1, c2, r2)
	}

	if _, _, _, _, err := parseCellRange("A16"); err == nil {
		t.Fatalf("expected an error for a single-cell range")
	}
}

func TestUnmergeOverlap(t *testing.T) {
	f, wb := newTestWorkbook()
	if err := wb.MergeCell(testSheet, "A5", "C5"); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if err := wb.MergeCell(testSheet, "E10", "F10"); err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	if err := unmergeOverlap(f, testSheet, 1, 4, 8, 6); err != nil {
		t.Fatalf("unmerge failed: %v", err)
	}

	merges, err := wb.GetMergeCells(testSheet)
	if err != nil {
		t.Fatalf("failed to list merges: %v", err)
	}
	if len(merges) != 1 || merges[0].GetStartAxis() != "E10" {
		t.Fatalf("only the out-of-range merge should survive, got %v", merges)
	}
}
