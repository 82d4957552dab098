package excel

import (
	"encoding/csv"
	"os"
	"strconv"

	"anchortest/domain/sample"
	"anchortest/internal/errors"

	"github.com/xuri/excelize/v2"
)

// WriteGroups writes x, y and z to path in the layout ReadGroups expects.
// The format follows the extension: .csv or xlsx otherwise.
func WriteGroups(path string, g *Groups) error {
	dim := 0
	for _, set := range []*sample.PointSet{g.X, g.Y, g.Z} {
		if !set.IsEmpty() {
			dim = set.Dim()
			break
		}
	}
	if dim == 0 {
		return errors.InvalidInput("no points to write")
	}

	columns := g.Columns
	if len(columns) != dim {
		columns = make([]string, dim)
		for j := range columns {
			columns[j] = "x" + strconv.Itoa(j+1)
		}
	}

	header := append([]string{DefaultExcelConfig().GroupColumn}, columns...)
	var records [][]string
	records = append(records, header)
	for _, part := range []struct {
		label string
		set   *sample.PointSet
	}{{GroupX, g.X}, {GroupY, g.Y}, {GroupZ, g.Z}} {
		for i := 0; i < part.set.Len(); i++ {
			record := make([]string, 0, dim+1)
			record = append(record, part.label)
			for _, v := range part.set.Row(i) {
				record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
			}
			records = append(records, record)
		}
	}

	if fileTypeOf(path) == "csv" {
		return writeCSV(path, records)
	}
	return writeExcel(path, records)
}

func writeCSV(path string, records [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create CSV file")
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(records); err != nil {
		return errors.Wrap(err, "write CSV file")
	}
	return nil
}

func writeExcel(path string, records [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := DefaultExcelConfig().Sheet
	for i, record := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.Wrap(err, "cell name")
		}
		row := make([]interface{}, len(record))
		for j, v := range record {
			if i > 0 && j > 0 {
				num, _ := strconv.ParseFloat(v, 64)
				row[j] = num
				continue
			}
			row[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrap(err, "write row")
		}
	}
	if err := f.SaveAs(path); err != nil {
		return errors.Wrap(err, "save Excel file")
	}
	return nil
}
