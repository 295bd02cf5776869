// Package sheet reads and writes the single-worksheet spreadsheets used for bulk imports.
//
// Every import sheet starts with two preamble rows (a title row and an instruction row)
// that are always discarded; data starts on row 3.
package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// PreambleRows is the number of leading header/instruction rows in every import sheet.
const PreambleRows = 2

// FirstDataRow is the 1-based spreadsheet row number of the first data row.
const FirstDataRow = PreambleRows + 1

// ErrNoData is returned when a sheet has nothing below the preamble.
var ErrNoData = errors.New("sheet has no data rows")

// Row is one data row with its 1-based spreadsheet row number.
type Row struct {
	Number int
	Cells  []string
}

// Cell returns the trimmed value at idx, or "" when the row is shorter.
func (r Row) Cell(idx int) string {
	if idx < 0 || idx >= len(r.Cells) {
		return ""
	}
	return strings.TrimSpace(r.Cells[idx])
}

// Blank reports whether every cell is empty.
func (r Row) Blank() bool {
	for i := range r.Cells {
		if r.Cell(i) != "" {
			return false
		}
	}
	return true
}

// Read parses the first worksheet of an xlsx file, or a CSV file when filename ends in .csv,
// drops the preamble and blank rows, and returns the remaining rows.
func Read(r io.Reader, filename string) ([]Row, error) {
	var (
		grid [][]string
		err  error
	)
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		grid, err = readCSV(r)
	} else {
		grid, err = readXLSX(r)
	}
	if err != nil {
		return nil, err
	}
	rows := DropPreamble(grid)
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	return rows, nil
}

// DropPreamble discards the preamble rows and blank rows from a raw grid.
func DropPreamble(grid [][]string) []Row {
	rows := make([]Row, 0, len(grid))
	for i, cells := range grid {
		if i < PreambleRows {
			continue
		}
		row := Row{Number: i + 1, Cells: cells}
		if row.Blank() {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close() //nolint:errcheck

	name := f.GetSheetName(0)
	if name == "" {
		return nil, fmt.Errorf("spreadsheet has no worksheets")
	}
	grid, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read worksheet %s: %w", name, err)
	}
	return grid, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	grid, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return grid, nil
}

// Template renders an empty import sheet: a title row, an instruction row naming each
// column in order, and no data.
func Template(title string, columns []string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	const name = "Import"
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}
	if err := f.SetCellValue(name, "A1", title+" (data starts on row 3; do not reorder columns)"); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(name, "A1", "A1", bold); err != nil {
		return nil, err
	}
	for i, column := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, PreambleRows)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(name, cell, column); err != nil {
			return nil, err
		}
		colName, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(name, colName, colName, 18); err != nil {
			return nil, err
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write template: %w", err)
	}
	return buf.Bytes(), nil
}
