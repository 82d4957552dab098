package excel

import "anchortest/domain/sample"

// RawRowData represents a row of raw spreadsheet data as string key-value pairs
type RawRowData map[string]string

// ExcelData represents a complete sheet
type ExcelData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

// Group labels accepted in the group column
const (
	GroupX = "X"
	GroupY = "Y"
	GroupZ = "Z"
)

// Groups are the three point sets of a test read from one file
type Groups struct {
	X, Y, Z *sample.PointSet
	// Columns names the coordinate columns in dimension order
	Columns []string
}
