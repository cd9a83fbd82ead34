package config

import "fmt"

// Provider defines the interface for retrieving sheet layouts.
type Provider interface {
	GetSheetLayout(name string) (*SheetLayout, error)
}

// MemoryConfigRegistry implements Provider using an in-memory map.
type MemoryConfigRegistry struct {
	layouts map[string]*SheetLayout
}

// NewMemoryConfigRegistry creates a new registry with the given layouts.
func NewMemoryConfigRegistry(layouts map[string]*SheetLayout) *MemoryConfigRegistry {
	return &MemoryConfigRegistry{
		layouts: layouts,
	}
}

// NewRegistryFromLayout builds a registry from a loaded Layout bundle.
func NewRegistryFromLayout(layout *Layout) *MemoryConfigRegistry {
	layouts := make(map[string]*SheetLayout, len(layout.Sheets))
	for name := range layout.Sheets {
		sheet := layout.Sheets[name]
		layouts[name] = &sheet
	}
	return &MemoryConfigRegistry{layouts: layouts}
}

// GetSheetLayout retrieves a SheetLayout by sheet name.
func (r *MemoryConfigRegistry) GetSheetLayout(name string) (*SheetLayout, error) {
	if layout, ok := r.layouts[name]; ok {
		return layout, nil
	}
	return nil, fmt.Errorf("sheet layout not found: %s", name)
}
