package excel

// RawRowData represents a row of raw spreadsheet data as string key-value pairs
type RawRowData map[string]string

// ExcelData represents the complete spreadsheet dataset
type ExcelData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

// Columns names the headers that map onto chart row fields. Empty names
// are detected from the headers where possible.
type Columns struct {
	Value    string
	Category string
	Trellis  string
	Marked   string
	Color    string
}
