package core

import (
	"fmt"

	"invoice-gen/config"
)

// ShipmentFetcher defines the interface for loading a shipment bundle by
// name, whatever the backing store is.
type ShipmentFetcher interface {
	Fetch(name string) (*ShipmentData, error)
}

// GenerationContext holds the state for the current generation run.
type GenerationContext struct {
	Layout   *config.Layout
	Provider config.Provider
	Data     *ShipmentData

	// FOB switches aggregated sheets to the FOB result set and enables
	// the FOB text substitutions; Custom selects the custom aggregation
	// with its amount / unit-price overrides.
	FOB    bool
	Custom bool
}

// NewGenerationContext creates a new context.
func NewGenerationContext(layout *config.Layout, provider config.Provider, data *ShipmentData, fob, custom bool) *GenerationContext {
	return &GenerationContext{
		Layout:   layout,
		Provider: provider,
		Data:     data,
		FOB:      fob,
		Custom:   custom,
	}
}

// aggregationEntries picks the active aggregated result set for a sheet,
// honoring the FOB and custom mode switches.
func (ctx *GenerationContext) aggregationEntries(kind config.SourceKind) []AggregationEntry {
	if kind == config.SourceFobAggregation || (ctx.FOB && kind == config.SourceAggregation) {
		return ctx.Data.FobAggregation
	}
	if ctx.Custom && len(ctx.Data.CustomAggregation) > 0 {
		return ctx.Data.CustomAggregation
	}
	return ctx.Data.Aggregation
}

// MockShipmentFetcher is a simple implementation for testing.
type MockShipmentFetcher struct {
	Data map[string]*ShipmentData
}

func (m *MockShipmentFetcher) Fetch(name string) (*ShipmentData, error) {
	if data, ok := m.Data[name]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("shipment not found: %s", name)
}
