package core

import (
	"fmt"
	"strings"

	"invoice-gen/config"
)

// HeaderInfo describes one freshly written header block. It is only valid
// for the chunk it was written for; row indices are absolute.
type HeaderInfo struct {
	FirstRow   int
	SecondRow  int
	ColumnMap  map[string]int // header id / text -> 1-based column
	NumColumns int
	Roles      RoleTable
}

// RoleTable holds the semantic columns resolved for a header, 0 when the
// role is absent.
type RoleTable struct {
	RowOrdinal  int
	PalletInfo  int
	PalletNo    int
	Description int
	TotalLabel  int
	Quantity    int
	UnitPrice   int
	Amount      int
	Net         int
	Gross       int
	CBM         int
	PO          int
	Mark        int
}

// Legacy header synonyms, used only when the layout does not pin a role
// explicitly. First declared match wins.
var roleSynonyms = map[config.ColumnRole][]string{
	config.RoleRowOrdinal:  {"NO.", "NO", "ITEM NO."},
	config.RolePalletInfo:  {"PALLET\nNO.", "PALLET NO.", "PALLET"},
	config.RolePalletNo:    {"PALLET\nNO.", "PALLET NO."},
	config.RoleDescription: {"DESCRIPTION", "DESCRIPTION OF GOODS", "DESCRIPTION OF GOOD"},
	config.RoleTotalLabel:  {"NO.", "PALLET\nNO.", "P.O Nº", "Mark & Nº", "DESCRIPTION"},
	config.RoleQuantity:    {"QUANTITY", "QTY", "SF"},
	config.RoleUnitPrice:   {"UNIT PRICE", "PRICE", "UNIT PRICE (USD)", "FCA\nSVAY RIENG"},
	config.RoleAmount:      {"AMOUNT", "TOTAL VALUE", "AMOUNT (USD)"},
	config.RoleNet:         {"N.W (kgs)", "NET WEIGHT", "N.W."},
	config.RoleGross:       {"G.W (kgs)", "GROSS WEIGHT", "G.W."},
	config.RoleCBM:         {"CBM", "MEAS. (CBM)"},
	config.RolePO:          {"P.O Nº", "P.O N°", "P.O NO.", "PO NO."},
	config.RoleMark:        {"Mark & Nº", "MARK & Nº", "MARK & NO.", "MARKS & NOS."},
}

// writeHeader writes one header block at startRow and derives its column
// map. Returns an error if the header cell list is empty or yields no
// columns; the caller treats that as a sheet-level failure.
func writeHeader(f ExcelFile, sheet string, startRow int, layout *config.SheetLayout, styles *styleCache) (*HeaderInfo, error) {
	if len(layout.HeaderCells) == 0 {
		return nil, fmt.Errorf("header cell list is empty")
	}

	height, width := 0, 0
	for _, cell := range layout.HeaderCells {
		rs, cs := max(cell.RowSpan, 1), max(cell.ColSpan, 1)
		if cell.Row+rs > height {
			height = cell.Row + rs
		}
		if cell.Col+cs > width {
			width = cell.Col + cs
		}
	}
	if height == 0 || width == 0 {
		return nil, fmt.Errorf("header cells yield an empty grid")
	}

	endRow := startRow + height - 1

	// Re-running a header write must not accumulate merges.
	if err := unmergeRowRange(f, sheet, startRow, endRow); err != nil {
		return nil, err
	}

	headerStyleID, err := styles.id(cellStyle{
		Font:      layout.Styling.HeaderFont,
		Alignment: layout.Styling.HeaderAlignment,
		Border:    fullBorder,
		Fill:      layout.Styling.HeaderBackground,
	})
	if err != nil {
		return nil, err
	}

	// Written text per relative (row, col); also remembers declared ids
	// and cells covered by explicit spans.
	grid := make(map[[2]int]string)
	covered := make(map[[2]int]bool)
	idAt := make(map[int]string)

	if err := f.SetCellStyle(sheet, cellName(1, startRow), cellName(width, endRow), headerStyleID); err != nil {
		return nil, fmt.Errorf("failed to style header block: %w", err)
	}

	for _, cell := range layout.HeaderCells {
		col := cell.Col + 1
		row := startRow + cell.Row
		if err := f.SetCellValue(sheet, cellName(col, row), cell.Text); err != nil {
			return nil, fmt.Errorf("failed to write header cell %s: %w", cellName(col, row), err)
		}
		grid[[2]int{cell.Row, cell.Col}] = cell.Text
		if cell.ID != "" && cell.Row == 0 {
			idAt[col] = cell.ID
		}

		if cell.RowSpan > 1 || cell.ColSpan > 1 {
			rs, cs := max(cell.RowSpan, 1), max(cell.ColSpan, 1)
			if err := mergeWithStyle(f, sheet, col, row, col+cs-1, row+rs-1, headerStyleID); err != nil {
				return nil, err
			}
			// Mark covered cells so inference leaves them alone.
			for r := cell.Row; r < cell.Row+rs; r++ {
				for c := cell.Col; c < cell.Col+cs; c++ {
					covered[[2]int{r, c}] = true
				}
			}
		}
	}

	if layout.Styling.RowHeights.Header > 0 {
		for r := startRow; r <= endRow; r++ {
			if err := f.SetRowHeight(sheet, r, layout.Styling.RowHeights.Header); err != nil {
				return nil, fmt.Errorf("failed to set header row height: %w", err)
			}
		}
	}

	// Vertical merge inference: a top-row label with nothing declared
	// beneath it spans the full header height.
	if height > 1 {
		for c := 0; c < width; c++ {
			top, declared := grid[[2]int{0, c}]
			if !declared || strings.TrimSpace(top) == "" || covered[[2]int{0, c}] {
				continue
			}
			blankBelow := true
			for r := 1; r < height; r++ {
				if v := grid[[2]int{r, c}]; strings.TrimSpace(v) != "" || covered[[2]int{r, c}] {
					blankBelow = false
					break
				}
			}
			if blankBelow {
				if err := mergeWithStyle(f, sheet, c+1, startRow, c+1, endRow, headerStyleID); err != nil {
					return nil, err
				}
			}
		}
	}

	// Explicit merges located by top-row header text, independent of
	// declaration order.
	for text, span := range layout.HeaderMerges {
		for c := 0; c < width; c++ {
			if grid[[2]int{0, c}] != text {
				continue
			}
			cs, rs := max(span.ColSpan, 1), max(span.RowSpan, 1)
			if cs > 1 || rs > 1 {
				if err := mergeWithStyle(f, sheet, c+1, startRow, c+cs, startRow+rs-1, headerStyleID); err != nil {
					return nil, err
				}
			}
			break
		}
	}

	info := &HeaderInfo{
		FirstRow:   startRow,
		SecondRow:  startRow,
		ColumnMap:  buildColumnMap(grid, idAt, width, height, layout.QuantitySplit),
		NumColumns: width,
	}
	if height > 1 {
		info.SecondRow = startRow + 1
	}
	if len(info.ColumnMap) == 0 {
		return nil, fmt.Errorf("no column map could be derived from the header")
	}
	info.Roles = resolveRoles(layout, info.ColumnMap)
	return info, nil
}

// buildColumnMap derives header label -> 1-based column. For two-row
// headers the second-row text wins when present; a quantity super-header
// maps its pair of sub columns by the configured sub labels.
func buildColumnMap(grid map[[2]int]string, idAt map[int]string, width, height int, split *config.QuantitySplit) map[string]int {
	columnMap := make(map[string]int)
	skip := map[int]bool{}

	for c := 0; c < width; c++ {
		col := c + 1
		if skip[col] {
			continue
		}
		top := strings.TrimSpace(grid[[2]int{0, c}])
		second := ""
		if height > 1 {
			second = strings.TrimSpace(grid[[2]int{1, c}])
		}

		if split != nil && top == split.SuperHeader {
			columnMap[split.FirstSub] = col
			if c+1 < width {
				columnMap[split.SecondSub] = col + 1
				skip[col+1] = true
			}
			continue
		}

		key := second
		if key == "" {
			key = top
		}
		if key != "" {
			columnMap[key] = col
		}
		if id := idAt[col]; id != "" {
			columnMap[id] = col
		}
	}

	if len(columnMap) == 0 {
		for c := 0; c < width; c++ {
			if top := strings.TrimSpace(grid[[2]int{0, c}]); top != "" {
				columnMap[top] = c + 1
			}
		}
	}
	return columnMap
}

// resolveRoles resolves semantic columns once per header write. Explicit
// role pins take precedence; synonym lists are the legacy fallback.
func resolveRoles(layout *config.SheetLayout, columnMap map[string]int) RoleTable {
	find := func(role config.ColumnRole) int {
		if id, ok := layout.ColumnRoles[role]; ok {
			if col, ok := columnMap[id]; ok {
				return col
			}
			return 0
		}
		for _, synonym := range roleSynonyms[role] {
			if col, ok := columnMap[synonym]; ok {
				return col
			}
		}
		return 0
	}

	return RoleTable{
		RowOrdinal:  find(config.RoleRowOrdinal),
		PalletInfo:  find(config.RolePalletInfo),
		PalletNo:    find(config.RolePalletNo),
		Description: find(config.RoleDescription),
		TotalLabel:  find(config.RoleTotalLabel),
		Quantity:    find(config.RoleQuantity),
		UnitPrice:   find(config.RoleUnitPrice),
		Amount:      find(config.RoleAmount),
		Net:         find(config.RoleNet),
		Gross:       find(config.RoleGross),
		CBM:         find(config.RoleCBM),
		PO:          find(config.RolePO),
		Mark:        find(config.RoleMark),
	}
}

// headerHeight reports how many rows the header grid occupies, without
// writing anything. The planner and writer must agree on this number.
func headerHeight(layout *config.SheetLayout) int {
	height := 0
	for _, cell := range layout.HeaderCells {
		if h := cell.Row + max(cell.RowSpan, 1); h > height {
			height = h
		}
	}
	return height
}

// headerWidth reports how many columns the header grid spans.
func headerWidth(layout *config.SheetLayout) int {
	width := 0
	for _, cell := range layout.HeaderCells {
		if w := cell.Col + max(cell.ColSpan, 1); w > width {
			width = w
		}
	}
	return width
}
