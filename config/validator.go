package config

import (
	"fmt"
)

// Validator validates the configuration objects.
type Validator struct{}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateLayout validates the full workbook layout bundle.
func (v *Validator) ValidateLayout(layout *Layout) error {
	if len(layout.SheetsToProcess) == 0 {
		return fmt.Errorf("layout must name at least one sheet to process")
	}
	if len(layout.SheetDataMap) == 0 {
		return fmt.Errorf("layout requires a sheetDataMap")
	}

	for _, name := range layout.SheetsToProcess {
		if _, ok := layout.SheetDataMap[name]; !ok {
			return fmt.Errorf("sheet '%s' has no sheetDataMap entry", name)
		}
		sheet, ok := layout.Sheets[name]
		if !ok {
			return fmt.Errorf("sheet '%s' has no layout", name)
		}
		if err := v.ValidateSheet(name, &sheet); err != nil {
			return fmt.Errorf("sheet '%s' error: %w", name, err)
		}
	}
	return nil
}

// ValidateSheet validates a single sheet layout.
func (v *Validator) ValidateSheet(name string, sheet *SheetLayout) error {
	if sheet.StartRow < 1 {
		return fmt.Errorf("startRow must be >= 1, got %d", sheet.StartRow)
	}
	if len(sheet.HeaderCells) == 0 {
		return fmt.Errorf("headerCells is required")
	}

	ids := make(map[string]struct{}, len(sheet.HeaderCells))
	for i, cell := range sheet.HeaderCells {
		if cell.Row < 0 || cell.Col < 0 {
			return fmt.Errorf("header cell %d has negative offsets", i)
		}
		if cell.ID != "" {
			ids[cell.ID] = struct{}{}
		}
		if cell.Text != "" {
			ids[cell.Text] = struct{}{}
		}
	}

	for id, rule := range sheet.MappingRules {
		if err := v.validateRule(id, &rule); err != nil {
			return err
		}
	}

	for _, sumID := range sheet.Footer.SumColumnIDs {
		if _, ok := ids[sumID]; !ok {
			return fmt.Errorf("footer sum column '%s' not declared in headerCells", sumID)
		}
	}

	for role, id := range sheet.ColumnRoles {
		switch role {
		case RoleRowOrdinal, RolePalletInfo, RolePalletNo, RoleDescription,
			RoleTotalLabel, RoleQuantity, RoleUnitPrice, RoleAmount,
			RoleNet, RoleGross, RoleCBM, RolePO, RoleMark:
			// OK
		default:
			return fmt.Errorf("unknown column role '%s'", role)
		}
		if id == "" {
			return fmt.Errorf("column role '%s' maps to an empty column id", role)
		}
	}

	if sheet.QuantitySplit != nil {
		qs := sheet.QuantitySplit
		if qs.SuperHeader == "" || qs.FirstSub == "" || qs.SecondSub == "" {
			return fmt.Errorf("quantitySplit requires superHeader, firstSub and secondSub")
		}
	}

	if sheet.RowSpacing < 0 {
		return fmt.Errorf("rowSpacing must not be negative")
	}
	return nil
}

func (v *Validator) validateRule(id string, rule *MappingRule) error {
	switch rule.Kind {
	case RuleKeyIndex:
		if rule.KeyIndex < 0 {
			return fmt.Errorf("mapping rule '%s': keyIndex must not be negative", id)
		}
	case RuleValueKey:
		if rule.ValueKey == "" {
			return fmt.Errorf("mapping rule '%s': valueKey is required", id)
		}
	case RuleStatic:
		if rule.StaticValue == nil {
			return fmt.Errorf("mapping rule '%s': staticValue is required", id)
		}
	case RuleFormula:
		if rule.Template == "" {
			return fmt.Errorf("mapping rule '%s': template is required", id)
		}
	case RuleInitialStaticRows:
		if len(rule.InitialRows) == 0 {
			return fmt.Errorf("mapping rule '%s': initialRows is required", id)
		}
	default:
		return fmt.Errorf("mapping rule '%s' has invalid kind '%s'", id, rule.Kind)
	}
	return nil
}
