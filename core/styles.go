package core

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"invoice-gen/config"
)

// borderSpec selects which edges of a cell get a thin border.
type borderSpec struct {
	Left   bool
	Right  bool
	Top    bool
	Bottom bool
}

var fullBorder = borderSpec{Left: true, Right: true, Top: true, Bottom: true}

// cellStyle is the immutable style request the fill engine composes per
// cell; styleCache turns it into a reusable excelize style id.
type cellStyle struct {
	Font         config.FontConfig
	Alignment    config.AlignmentConfig
	NumberFormat string
	Border       borderSpec
	Fill         string
}

// styleCache deduplicates style registration. Excelize allocates a new
// style id per NewStyle call, and a workbook tolerates only ~64k styles.
type styleCache struct {
	f   ExcelFile
	ids map[string]int
}

func newStyleCache(f ExcelFile) *styleCache {
	return &styleCache{f: f, ids: make(map[string]int)}
}

func (c *styleCache) id(s cellStyle) (int, error) {
	key := fmt.Sprintf("%s|%.1f|%t|%s|%s|%t|%s|%t%t%t%t|%s",
		s.Font.Name, s.Font.Size, s.Font.Bold,
		s.Alignment.Horizontal, s.Alignment.Vertical, s.Alignment.WrapText,
		s.NumberFormat,
		s.Border.Left, s.Border.Right, s.Border.Top, s.Border.Bottom,
		s.Fill)
	if id, ok := c.ids[key]; ok {
		return id, nil
	}

	style := &excelize.Style{}
	if s.Font.Name != "" || s.Font.Size > 0 || s.Font.Bold {
		style.Font = &excelize.Font{
			Family: s.Font.Name,
			Size:   s.Font.Size,
			Bold:   s.Font.Bold,
		}
	}
	if s.Alignment.Horizontal != "" || s.Alignment.Vertical != "" || s.Alignment.WrapText {
		style.Alignment = &excelize.Alignment{
			Horizontal: s.Alignment.Horizontal,
			Vertical:   s.Alignment.Vertical,
			WrapText:   s.Alignment.WrapText,
		}
	}
	if s.NumberFormat != "" {
		style.CustomNumFmt = &s.NumberFormat
	}
	if s.Fill != "" {
		style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{s.Fill}}
	}
	style.Border = borders(s.Border)

	id, err := c.f.NewStyle(style)
	if err != nil {
		return 0, fmt.Errorf("failed to register cell style: %w", err)
	}
	c.ids[key] = id
	return id, nil
}

func borders(spec borderSpec) []excelize.Border {
	var out []excelize.Border
	if spec.Left {
		out = append(out, excelize.Border{Type: "left", Style: 1, Color: "000000"})
	}
	if spec.Right {
		out = append(out, excelize.Border{Type: "right", Style: 1, Color: "000000"})
	}
	if spec.Top {
		out = append(out, excelize.Border{Type: "top", Style: 1, Color: "000000"})
	}
	if spec.Bottom {
		out = append(out, excelize.Border{Type: "bottom", Style: 1, Color: "000000"})
	}
	return out
}

func fontOrDefault(f *config.FontConfig, fallback config.FontConfig) config.FontConfig {
	if f == nil {
		return fallback
	}
	return *f
}

// Number formats shared with the upstream documents.
const (
	fmtText    = "@"
	fmtDecimal = "#,##0.00"
)
