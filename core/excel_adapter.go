package core

import "github.com/xuri/excelize/v2"

// ExcelFile abstracts workbook operations to decouple the fill engine from excelize.
type ExcelFile interface {
	Close() error
	GetCellValue(sheet, cell string) (string, error)
	SetCellValue(sheet, cell string, value interface{}) error
	SetCellFormula(sheet, cell, formula string) error
	SetCellStyle(sheet, hcell, vcell string, styleID int) error
	NewStyle(style *excelize.Style) (int, error)
	InsertRows(sheet string, row, rows int) error
	MergeCell(sheet, hcell, vcell string) error
	UnmergeCell(sheet, hcell, vcell string) error
	GetMergeCells(sheet string) ([]excelize.MergeCell, error)
	SetRowHeight(sheet string, row int, height float64) error
	GetRowHeight(sheet string, row int) (float64, error)
	SetColWidth(sheet, startCol, endCol string, width float64) error
	GetRows(sheet string, opts ...excelize.Options) ([][]string, error)
	GetSheetList() []string
	GetSheetIndex(name string) (int, error)
	SetActiveSheet(index int)
	SetSelection(sheetName, cell string) error
	SaveAs(name string) error
}

type ExcelizeFile struct {
	file *excelize.File
}

func openExcelFile(path string) (ExcelFile, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return &ExcelizeFile{file: file}, nil
}

func (e *ExcelizeFile) Close() error {
	return e.file.Close()
}

func (e *ExcelizeFile) GetCellValue(sheet, cell string) (string, error) {
	return e.file.GetCellValue(sheet, cell)
}

func (e *ExcelizeFile) SetCellValue(sheet, cell string, value interface{}) error {
	return e.file.SetCellValue(sheet, cell, value)
}

func (e *ExcelizeFile) SetCellFormula(sheet, cell, formula string) error {
	return e.file.SetCellFormula(sheet, cell, formula)
}

func (e *ExcelizeFile) SetCellStyle(sheet, hcell, vcell string, styleID int) error {
	return e.file.SetCellStyle(sheet, hcell, vcell, styleID)
}

func (e *ExcelizeFile) NewStyle(style *excelize.Style) (int, error) {
	return e.file.NewStyle(style)
}

func (e *ExcelizeFile) InsertRows(sheet string, row, rows int) error {
	return e.file.InsertRows(sheet, row, rows)
}

func (e *ExcelizeFile) MergeCell(sheet, hcell, vcell string) error {
	return e.file.MergeCell(sheet, hcell, vcell)
}

func (e *ExcelizeFile) UnmergeCell(sheet, hcell, vcell string) error {
	return e.file.UnmergeCell(sheet, hcell, vcell)
}

func (e *ExcelizeFile) GetMergeCells(sheet string) ([]excelize.MergeCell, error) {
	return e.file.GetMergeCells(sheet)
}

func (e *ExcelizeFile) SetRowHeight(sheet string, row int, height float64) error {
	return e.file.SetRowHeight(sheet, row, height)
}

func (e *ExcelizeFile) GetRowHeight(sheet string, row int) (float64, error) {
	return e.file.GetRowHeight(sheet, row)
}

func (e *ExcelizeFile) SetColWidth(sheet, startCol, endCol string, width float64) error {
	return e.file.SetColWidth(sheet, startCol, endCol, width)
}

func (e *ExcelizeFile) GetRows(sheet string, opts ...excelize.Options) ([][]string, error) {
	return e.file.GetRows(sheet, opts...)
}

func (e *ExcelizeFile) GetSheetList() []string {
	return e.file.GetSheetList()
}

func (e *ExcelizeFile) GetSheetIndex(name string) (int, error) {
	return e.file.GetSheetIndex(name)
}

func (e *ExcelizeFile) SetActiveSheet(index int) {
	e.file.SetActiveSheet(index)
}

func (e *ExcelizeFile) SaveAs(name string) error {
	return e.file.SaveAs(name)
}

func (e *ExcelizeFile) SetSelection(sheetName, cell string) error {
	// Set active cell and selection to the specified cell (e.g., "A1") using SetPanes.
	// We try to preserve existing panes if possible.
	panes, err := e.file.GetPanes(sheetName)
	if err == nil {
		panes.Selection = []excelize.Selection{
			{
				ActiveCell: cell,
				SQRef:      cell,
			},
		}
		return e.file.SetPanes(sheetName, &panes)
	}

	return e.file.SetPanes(sheetName, &excelize.Panes{
		Freeze: false,
		Split:  false,
		Selection: []excelize.Selection{
			{
				ActiveCell: cell,
				SQRef:      cell,
			},
		},
	})
}
