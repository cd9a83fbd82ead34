package config

type SourceKind string

const (
	SourceAggregation    SourceKind = "aggregation"
	SourceFobAggregation SourceKind = "fob_aggregation"
	SourceMultiTable     SourceKind = "processed_tables_multi"
)

type RuleKind string

const (
	RuleKeyIndex          RuleKind = "key_index"
	RuleValueKey          RuleKind = "value_key"
	RuleStatic            RuleKind = "static"
	RuleFormula           RuleKind = "formula"
	RuleInitialStaticRows RuleKind = "initial_static_rows"
)

// ColumnRole pins a semantic column to a stable name instead of matching
// header text against synonym lists at resolution time.
type ColumnRole string

const (
	RoleRowOrdinal  ColumnRole = "row_ordinal"
	RolePalletInfo  ColumnRole = "pallet_info"
	RolePalletNo    ColumnRole = "pallet_no"
	RoleDescription ColumnRole = "description"
	RoleTotalLabel  ColumnRole = "total_label"
	RoleQuantity    ColumnRole = "quantity"
	RoleUnitPrice   ColumnRole = "unit_price"
	RoleAmount      ColumnRole = "amount"
	RoleNet         ColumnRole = "net"
	RoleGross       ColumnRole = "gross"
	RoleCBM         ColumnRole = "cbm"
	RolePO          ColumnRole = "po"
	RoleMark        ColumnRole = "mark"
)

// HeaderCell: one entry of the sparse header grid. Row/Col are zero-based
// offsets from the sheet start row / column A.
type HeaderCell struct {
	Row     int    `json:"row"               yaml:"row"`
	Col     int    `json:"col"               yaml:"col"`
	Text    string `json:"text"              yaml:"text"`
	ID      string `json:"id,omitempty"      yaml:"id,omitempty"`
	RowSpan int    `json:"rowspan,omitempty" yaml:"rowspan,omitempty"`
	ColSpan int    `json:"colspan,omitempty" yaml:"colspan,omitempty"`
}

// SpanRule：explicit header merge, located by header text.
type SpanRule struct {
	ColSpan int `json:"colspan,omitempty" yaml:"colspan,omitempty"`
	RowSpan int `json:"rowspan,omitempty" yaml:"rowspan,omitempty"`
}

// MappingRule is a closed tagged variant; Kind selects which of the
// remaining fields are meaningful.
type MappingRule struct {
	Kind RuleKind `json:"kind" yaml:"kind"`

	// key_index
	KeyIndex int `json:"keyIndex,omitempty" yaml:"keyIndex,omitempty"`

	// value_key
	ValueKey string `json:"valueKey,omitempty" yaml:"valueKey,omitempty"`

	// static, also the fallback value for key_index / value_key
	StaticValue    interface{} `json:"staticValue,omitempty"    yaml:"staticValue,omitempty"`
	FallbackOnNone interface{} `json:"fallbackOnNone,omitempty" yaml:"fallbackOnNone,omitempty"`

	// formula: Template holds {col_ref_N} and {row} placeholders, Inputs
	// names the column ids substituted for col_ref_1..N in order.
	Template string   `json:"template,omitempty" yaml:"template,omitempty"`
	Inputs   []string `json:"inputs,omitempty"   yaml:"inputs,omitempty"`

	// initial_static_rows
	InitialRows []string `json:"initialRows,omitempty" yaml:"initialRows,omitempty"`

	// Marker locates a labelled cell elsewhere on the sheet that receives
	// a compounded summary value after the table is written.
	Marker string `json:"marker,omitempty" yaml:"marker,omitempty"`
}

type FontConfig struct {
	Name string  `json:"name,omitempty" yaml:"name,omitempty"`
	Size float64 `json:"size,omitempty" yaml:"size,omitempty"`
	Bold bool    `json:"bold,omitempty" yaml:"bold,omitempty"`
}

type AlignmentConfig struct {
	Horizontal string `json:"horizontal,omitempty" yaml:"horizontal,omitempty"`
	Vertical   string `json:"vertical,omitempty"   yaml:"vertical,omitempty"`
	WrapText   bool   `json:"wrapText,omitempty"   yaml:"wrapText,omitempty"`
}

// ColumnStyle：per-column override applied on top of the sheet defaults.
type ColumnStyle struct {
	Font         *FontConfig      `json:"font,omitempty"         yaml:"font,omitempty"`
	Alignment    *AlignmentConfig `json:"alignment,omitempty"    yaml:"alignment,omitempty"`
	NumberFormat string           `json:"numberFormat,omitempty" yaml:"numberFormat,omitempty"`
}

type RowHeights struct {
	Header       float64 `json:"header,omitempty"       yaml:"header,omitempty"`
	Data         float64 `json:"data,omitempty"         yaml:"data,omitempty"`
	BeforeFooter float64 `json:"beforeFooter,omitempty" yaml:"beforeFooter,omitempty"`
	Footer       float64 `json:"footer,omitempty"       yaml:"footer,omitempty"`
}

type Styling struct {
	DefaultFont      FontConfig             `json:"defaultFont"                yaml:"defaultFont"`
	HeaderFont       FontConfig             `json:"headerFont"                 yaml:"headerFont"`
	DefaultAlignment AlignmentConfig        `json:"defaultAlignment"           yaml:"defaultAlignment"`
	HeaderAlignment  AlignmentConfig        `json:"headerAlignment"            yaml:"headerAlignment"`
	HeaderBackground string                 `json:"headerBackground,omitempty" yaml:"headerBackground,omitempty"`
	ColumnStyles     map[string]ColumnStyle `json:"columnStyles,omitempty"     yaml:"columnStyles,omitempty"`
	ColumnWidths     map[string]float64     `json:"columnWidths,omitempty"     yaml:"columnWidths,omitempty"`
	RowHeights       RowHeights             `json:"rowHeights"                 yaml:"rowHeights"`
	ForceTextIDs     []string               `json:"forceTextIds,omitempty"     yaml:"forceTextIds,omitempty"`
	FullGridIDs      []string               `json:"fullGridIds,omitempty"      yaml:"fullGridIds,omitempty"`
}

// MergeRule：horizontal merge for a footer or blank row, anchored at a
// 1-based column, spanning ColSpan columns.
type MergeRule struct {
	StartColumn int `json:"startColumn" yaml:"startColumn"`
	ColSpan     int `json:"colspan"     yaml:"colspan"`
}

type FooterConfig struct {
	TotalText     string            `json:"totalText"                yaml:"totalText"`
	SumColumnIDs  []string          `json:"sumColumnIds"             yaml:"sumColumnIds"`
	PalletCountID string            `json:"palletCountId,omitempty"  yaml:"palletCountId,omitempty"`
	NumberFormats map[string]string `json:"numberFormats,omitempty"  yaml:"numberFormats,omitempty"`
	MergeRules    []MergeRule       `json:"mergeRules,omitempty"     yaml:"mergeRules,omitempty"`
	Font          *FontConfig       `json:"font,omitempty"           yaml:"font,omitempty"`
}

// ExtraRowCell：one cell of a configured row written below the footer.
type ExtraRowCell struct {
	Column      int         `json:"column"                yaml:"column"` // 1-based
	Text        string      `json:"text,omitempty"        yaml:"text,omitempty"`
	TotalField  string      `json:"totalField,omitempty"  yaml:"totalField,omitempty"` // "net", "gross", "cbm"
	StaticValue interface{} `json:"staticValue,omitempty" yaml:"staticValue,omitempty"`
}

type ExtraRow struct {
	Cells      []ExtraRowCell `json:"cells"                yaml:"cells"`
	Height     float64        `json:"height,omitempty"     yaml:"height,omitempty"`
	Font       *FontConfig    `json:"font,omitempty"       yaml:"font,omitempty"`
	MergeRules []MergeRule    `json:"mergeRules,omitempty" yaml:"mergeRules,omitempty"`
}

// QuantitySplit reproduces the fixed two-level quantity header: a super
// header over two sub columns whose labels become the column-map keys.
type QuantitySplit struct {
	SuperHeader string `json:"superHeader" yaml:"superHeader"`
	FirstSub    string `json:"firstSub"    yaml:"firstSub"`
	SecondSub   string `json:"secondSub"   yaml:"secondSub"`
}

type BlankRowConfig struct {
	Content    map[string]string `json:"content,omitempty"    yaml:"content,omitempty"` // column id -> text
	MergeRules []MergeRule       `json:"mergeRules,omitempty" yaml:"mergeRules,omitempty"`
	Height     float64           `json:"height,omitempty"     yaml:"height,omitempty"`
}

type SheetLayout struct {
	StartRow     int                    `json:"startRow"                yaml:"startRow"`
	HeaderCells  []HeaderCell           `json:"headerCells"             yaml:"headerCells"`
	HeaderMerges map[string]SpanRule    `json:"headerMerges,omitempty"  yaml:"headerMerges,omitempty"`
	MappingRules map[string]MappingRule `json:"mappingRules"            yaml:"mappingRules"` // column id -> rule
	Footer       FooterConfig           `json:"footer"                  yaml:"footer"`
	Styling      Styling                `json:"styling"                 yaml:"styling"`

	// ColumnRoles maps a role name to a column id. Roles left unset fall
	// back to the legacy header-text synonym lists.
	ColumnRoles map[ColumnRole]string `json:"columnRoles,omitempty" yaml:"columnRoles,omitempty"`

	QuantitySplit *QuantitySplit `json:"quantitySplit,omitempty" yaml:"quantitySplit,omitempty"`

	BlankAfterHeader  *BlankRowConfig `json:"blankAfterHeader,omitempty"  yaml:"blankAfterHeader,omitempty"`
	BlankBeforeFooter *BlankRowConfig `json:"blankBeforeFooter,omitempty" yaml:"blankBeforeFooter,omitempty"`

	Summary        bool   `json:"summary,omitempty"        yaml:"summary,omitempty"`
	SummaryKeyword string `json:"summaryKeyword,omitempty" yaml:"summaryKeyword,omitempty"`
	RowSpacing     int    `json:"rowSpacing,omitempty"     yaml:"rowSpacing,omitempty"`

	RowsAfterFooter []ExtraRow `json:"rowsAfterFooter,omitempty" yaml:"rowsAfterFooter,omitempty"`
}

// TextReplacement：generic find/replace applied across sheets after all
// tables are written.
type TextReplacement struct {
	Find          string   `json:"find"                    yaml:"find"`
	Replace       string   `json:"replace"                 yaml:"replace"`
	Sheets        []string `json:"sheets,omitempty"        yaml:"sheets,omitempty"` // empty = all
	ExactCell     bool     `json:"exactCell,omitempty"     yaml:"exactCell,omitempty"`
	CaseSensitive bool     `json:"caseSensitive,omitempty" yaml:"caseSensitive,omitempty"`

	// DataPath pulls the replacement value from the shipment data instead
	// of Replace, e.g. "metadata.invoice_no".
	DataPath string `json:"dataPath,omitempty" yaml:"dataPath,omitempty"`
}

// Layout：the full workbook layout configuration.
type Layout struct {
	SheetsToProcess  []string               `json:"sheetsToProcess"            yaml:"sheetsToProcess"`
	SheetDataMap     map[string]string      `json:"sheetDataMap"               yaml:"sheetDataMap"` // sheet -> source kind or chunk-set key
	Sheets           map[string]SheetLayout `json:"sheets"                     yaml:"sheets"`
	TextReplacements []TextReplacement      `json:"textReplacements,omitempty" yaml:"textReplacements,omitempty"`
}
