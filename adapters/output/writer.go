package output

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"mcmcstats/domain/draws"
	"mcmcstats/domain/stats"
)

const sheetName = "Sheet1"

// WriteDraws writes a frame as tidy CSV, one column per schema field
func WriteDraws(path string, f *draws.Frame) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create draws file: %w", err)
	}
	defer file.Close()

	cols := f.Schema().Columns()
	w := csv.NewWriter(file)
	if err := w.Write(cols); err != nil {
		return err
	}
	record := make([]string, len(cols))
	for i := 0; i < f.Len(); i++ {
		r := f.Row(i)
		for j, c := range cols {
			record[j] = drawCell(r, c)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write draws file: %w", err)
	}
	return file.Close()
}

func drawCell(r draws.Row, column string) string {
	switch column {
	case colIteration:
		return strconv.Itoa(r.Iteration)
	case colParameterName:
		return r.ParameterName
	case colDimension:
		return strconv.Itoa(r.Dimension)
	}
	f, _ := draws.ParseField(column)
	switch f {
	case draws.FieldChain:
		return strconv.Itoa(r.Chain)
	case draws.FieldTarget:
		return strconv.Itoa(r.Target)
	case draws.FieldExternalTarget:
		return r.ExternalTarget
	case draws.FieldTargetParameters:
		return r.TargetParameters
	case draws.FieldExternalTargetParameters:
		return r.ExternalTargetParameters
	case draws.FieldValue:
		return formatFloat(r.Value)
	case draws.FieldLogWeight:
		return formatFloat(r.LogWeight)
	case draws.FieldRep:
		return strconv.Itoa(r.Rep)
	case draws.FieldExternalIndex:
		return strconv.Itoa(r.ExternalIndex)
	case draws.FieldTime:
		return formatFloat(r.Time)
	}
	return ""
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteTable writes a statistics table as CSV or XLSX, chosen by extension
func WriteTable(path string, t *stats.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return writeTableXLSX(path, t)
	}
	return writeTableCSV(path, t)
}

func writeTableCSV(path string, t *stats.Table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create table file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(t.Names()); err != nil {
		return err
	}
	cols := t.Columns()
	record := make([]string, len(cols))
	for r := 0; r < t.NumRows(); r++ {
		for c, col := range cols {
			record[c] = t.Cell(r, c).Format(col.Kind)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	return file.Close()
}

// writeTableXLSX writes numbers as numeric cells; non-finite values are left
// as text since spreadsheets cannot store them.
func writeTableXLSX(path string, t *stats.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	cols := t.Columns()
	for c, col := range cols {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, col.Name); err != nil {
			return err
		}
	}
	for r := 0; r < t.NumRows(); r++ {
		for c, col := range cols {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			v := t.Cell(r, c)
			var value interface{} = v.Str
			if col.Kind == stats.KindNumber {
				if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
					value = v.Format(col.Kind)
				} else {
					value = v.Num
				}
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// ReadTable loads a table written by WriteTable. A column is numeric when
// every non-missing cell parses as a number.
func ReadTable(path string) (*stats.Table, error) {
	data, err := NewDataReader(path).ReadData()
	if err != nil {
		return nil, err
	}

	cols := make([]stats.Column, len(data.Headers))
	for c, h := range data.Headers {
		kind := stats.KindNumber
		for _, row := range data.Rows {
			if isMissing(row[c]) {
				continue
			}
			if _, err := strconv.ParseFloat(row[c], 64); err != nil {
				kind = stats.KindString
				break
			}
		}
		cols[c] = stats.Column{Name: h, Kind: kind}
	}

	rows := make([][]stats.Cell, len(data.Rows))
	for r, raw := range data.Rows {
		row := make([]stats.Cell, len(cols))
		for c, col := range cols {
			if col.Kind == stats.KindString {
				row[c] = stats.Str(raw[c])
				continue
			}
			v, _ := parseFloat(raw[c])
			row[c] = stats.Num(v)
		}
		rows[r] = row
	}
	return stats.NewTable(cols, rows)
}
