package importer

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Serial day numbers excelize accepts; 2958465 is 9999-12-31.
const (
	minDateSerial = 1
	maxDateSerial = 2958465
)

// extractSpreadsheet reads the statement sheet of an xlsx workbook.
func extractSpreadsheet(data []byte, tmpl *Template) (*extraction, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet, rows, err := selectSheet(f, tmpl.Sheet)
	if err != nil {
		return nil, err
	}
	if err := expandMerged(f, sheet, rows); err != nil {
		return nil, err
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	nativeDate := func(cell string) (time.Time, bool) {
		serial, err := strconv.ParseFloat(cell, 64)
		if err != nil || serial < minDateSerial || serial > maxDateSerial {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(serial, date1904)
		if err != nil {
			return time.Time{}, false
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}

	grid := make([]gridRow, len(rows))
	for i, r := range rows {
		grid[i] = gridRow{Ref: fmt.Sprintf("%s row %d", sheet, i+1), Cells: r}
	}
	return extractGrid(grid, tmpl, nativeDate)
}

// selectSheet returns the template's sheet, or the first sheet with data.
// Cells are raw values so dates arrive as serial numbers.
func selectSheet(f *excelize.File, name string) (string, [][]string, error) {
	opts := excelize.Options{RawCellValue: true}
	if name != "" {
		rows, err := f.GetRows(name, opts)
		if err != nil {
			return "", nil, fmt.Errorf("reading sheet %q: %w", name, err)
		}
		return name, rows, nil
	}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, opts)
		if err != nil {
			return "", nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
		}
		for _, r := range rows {
			if (gridRow{Cells: r}).blank() {
				continue
			}
			return sheet, rows, nil
		}
	}
	return "", nil, fmt.Errorf("workbook has no data")
}

// expandMerged copies the value of every merged range into all the cells it
// covers, so a header merged across two columns names both.
func expandMerged(f *excelize.File, sheet string, rows [][]string) error {
	merged, err := f.GetMergeCells(sheet)
	if err != nil {
		return fmt.Errorf("reading merged cells: %w", err)
	}
	for _, mc := range merged {
		c0, r0, err := excelize.CellNameToCoordinates(mc.GetStartAxis())
		if err != nil {
			return fmt.Errorf("merged range %s: %w", mc.GetStartAxis(), err)
		}
		c1, r1, err := excelize.CellNameToCoordinates(mc.GetEndAxis())
		if err != nil {
			return fmt.Errorf("merged range %s: %w", mc.GetEndAxis(), err)
		}
		if r0-1 >= len(rows) {
			continue
		}
		value := ""
		if c0-1 < len(rows[r0-1]) {
			value = rows[r0-1][c0-1]
		}
		if strings.TrimSpace(value) == "" {
			continue
		}
		for r := r0; r <= r1 && r-1 < len(rows); r++ {
			for len(rows[r-1]) < c1 {
				rows[r-1] = append(rows[r-1], "")
			}
			for c := c0; c <= c1; c++ {
				rows[r-1][c-1] = value
			}
		}
	}
	return nil
}
