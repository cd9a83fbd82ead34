package config

import (
	"strings"
	"testing"
)

func validLayout() *Layout {
	return &Layout{
		SheetsToProcess: []string{"Invoice"},
		SheetDataMap:    map[string]string{"Invoice": "aggregation"},
		Sheets: map[string]SheetLayout{
			"Invoice": {
				StartRow: 10,
				HeaderCells: []HeaderCell{
					{Row: 0, Col: 0, Text: "P.O Nº", ID: "po"},
					{Row: 0, Col: 1, Text: "AMOUNT", ID: "amount"},
				},
				MappingRules: map[string]MappingRule{
					"po":     {Kind: RuleKeyIndex, KeyIndex: 0},
					"amount": {Kind: RuleValueKey, ValueKey: "amount_sum"},
				},
				Footer: FooterConfig{
					TotalText:    "TOTAL:",
					SumColumnIDs: []string{"amount"},
				},
			},
		},
	}
}

func TestValidateLayoutOK(t *testing.T) {
	if err := NewValidator().ValidateLayout(validLayout()); err != nil {
		t.Fatalf("expected valid layout, got %v", err)
	}
}

func TestValidateLayoutMissingSheetLayout(t *testing.T) {
	layout := validLayout()
	layout.SheetsToProcess = append(layout.SheetsToProcess, "Contract")
	layout.SheetDataMap["Contract"] = "aggregation"

	err := NewValidator().ValidateLayout(layout)
	if err == nil || !strings.Contains(err.Error(), "Contract") {
		t.Fatalf("expected missing layout error for Contract, got %v", err)
	}
}

func TestValidateSheetRejectsBadRuleKind(t *testing.T) {
	layout := validLayout()
	sheet := layout.Sheets["Invoice"]
	sheet.MappingRules["po"] = MappingRule{Kind: "mystery"}
	layout.Sheets["Invoice"] = sheet

	err := NewValidator().ValidateLayout(layout)
	if err == nil || !strings.Contains(err.Error(), "invalid kind") {
		t.Fatalf("expected invalid kind error, got %v", err)
	}
}

func TestValidateSheetRejectsUnknownSumColumn(t *testing.T) {
	layout := validLayout()
	sheet := layout.Sheets["Invoice"]
	sheet.Footer.SumColumnIDs = []string{"ghost"}
	layout.Sheets["Invoice"] = sheet

	err := NewValidator().ValidateLayout(layout)
	if err == nil || !strings.Contains(err.Error(), "ghost") {
		t.Fatalf("expected unknown sum column error, got %v", err)
	}
}

func TestValidateSheetRejectsUnknownRole(t *testing.T) {
	layout := validLayout()
	sheet := layout.Sheets["Invoice"]
	sheet.ColumnRoles = map[ColumnRole]string{"sideways": "po"}
	layout.Sheets["Invoice"] = sheet

	err := NewValidator().ValidateLayout(layout)
	if err == nil || !strings.Contains(err.Error(), "unknown column role") {
		t.Fatalf("expected unknown role error, got %v", err)
	}
}

func TestValidateSheetRejectsEmptyHeader(t *testing.T) {
	v := NewValidator()
	err := v.ValidateSheet("Invoice", &SheetLayout{StartRow: 5})
	if err == nil || !strings.Contains(err.Error(), "headerCells") {
		t.Fatalf("expected header error, got %v", err)
	}
}
