package excel

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"anchortest/domain/sample"
	"anchortest/internal/errors"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// DataReader handles reading Excel and CSV point-set files
type DataReader struct {
	config   ExcelConfig
	fileType string // "xlsx" or "csv"
	logger   *zap.Logger
}

// NewDataReader creates a reader for path with default settings
func NewDataReader(path string) *DataReader {
	config := DefaultExcelConfig()
	config.FilePath = path
	return NewDataReaderWithConfig(config, nil)
}

// NewDataReaderWithConfig creates a reader. A nil logger discards output.
func NewDataReaderWithConfig(config ExcelConfig, logger *zap.Logger) *DataReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultExcelConfig()
	if config.Sheet == "" {
		config.Sheet = defaults.Sheet
	}
	if config.GroupColumn == "" {
		config.GroupColumn = defaults.GroupColumn
	}
	return &DataReader{
		config:   config,
		fileType: fileTypeOf(config.FilePath),
		logger:   logger,
	}
}

func fileTypeOf(path string) string {
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		return "csv"
	}
	return "xlsx"
}

// ReadData reads the sheet into structured format
func (r *DataReader) ReadData() (*ExcelData, error) {
	r.logger.Debug("reading point-set file",
		zap.String("path", r.config.FilePath),
		zap.String("type", r.fileType))

	if _, err := os.Stat(r.config.FilePath); os.IsNotExist(err) {
		return nil, errors.NotFound(strings.ToUpper(r.fileType) + " file " + r.config.FilePath)
	}

	var (
		rows [][]string
		err  error
	)
	start := time.Now()
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	default:
		rows, err = r.readExcelRows()
	}
	if err != nil {
		return nil, err
	}
	r.logger.Debug("point-set file read",
		zap.Int("rows", len(rows)),
		zap.Duration("elapsed", time.Since(start)))

	if len(rows) < 2 {
		return nil, errors.InvalidInput("file must have a header row and at least one data row")
	}
	return processRows(rows), nil
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.config.FilePath)
	if err != nil {
		return nil, errors.InvalidInputf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(r.config.Sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.InvalidInputf("failed to read sheet %s: %v", r.config.Sheet, err)
	}
	return rows, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.config.FilePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.InvalidInputf("failed to read CSV file: %v", err)
	}
	return rows, nil
}

// processRows converts raw string rows into ExcelData format
func processRows(rows [][]string) *ExcelData {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
	}

	dataRows := make([]RawRowData, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		rowData := make(RawRowData, len(headers))
		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	return &ExcelData{Headers: headers, Rows: dataRows}
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ReadGroups reads the file and splits its rows into X, Y and Z by the group
// column. Every other column is a coordinate, in header order.
func (r *DataReader) ReadGroups() (*Groups, error) {
	data, err := r.ReadData()
	if err != nil {
		return nil, err
	}
	return r.SplitGroups(data)
}

// SplitGroups turns parsed sheet data into point sets
func (r *DataReader) SplitGroups(data *ExcelData) (*Groups, error) {
	groupColumn := ""
	var columns []string
	for _, h := range data.Headers {
		if strings.EqualFold(h, r.config.GroupColumn) {
			groupColumn = h
			continue
		}
		if h != "" {
			columns = append(columns, h)
		}
	}
	if groupColumn == "" {
		return nil, errors.InvalidInputf("no %q column in header", r.config.GroupColumn)
	}
	if len(columns) == 0 {
		return nil, errors.InvalidInput("no coordinate columns in header")
	}

	buckets := map[string][][]float64{}
	for i, row := range data.Rows {
		label := strings.ToUpper(row[groupColumn])
		switch label {
		case GroupX, GroupY, GroupZ:
		default:
			return nil, errors.InvalidInputf("row %d: unknown group %q, want X, Y or Z", i+2, row[groupColumn])
		}

		point := make([]float64, len(columns))
		for j, col := range columns {
			v, err := strconv.ParseFloat(row[col], 64)
			if err != nil {
				return nil, errors.InvalidInputf("row %d column %s: %q is not a number", i+2, col, row[col])
			}
			point[j] = v
		}
		buckets[label] = append(buckets[label], point)
	}

	groups := &Groups{Columns: columns}
	for label, dst := range map[string]**sample.PointSet{GroupX: &groups.X, GroupY: &groups.Y, GroupZ: &groups.Z} {
		set, err := sample.New(buckets[label])
		if err != nil {
			return nil, errors.Wrapf(err, "group %s", label)
		}
		*dst = set
	}

	r.logger.Info("point sets loaded",
		zap.String("path", r.config.FilePath),
		zap.Int("x", groups.X.Len()),
		zap.Int("y", groups.Y.Len()),
		zap.Int("z", groups.Z.Len()),
		zap.Int("dimension", len(columns)))
	return groups, nil
}
