package excel

// ExcelConfig holds configuration for point-set files
type ExcelConfig struct {
	FilePath    string `json:"file_path"`
	Sheet       string `json:"sheet"`
	GroupColumn string `json:"group_column"`
}

// DefaultExcelConfig returns the defaults: Sheet1 and a "group" column
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{
		Sheet:       "Sheet1",
		GroupColumn: "group",
	}
}
