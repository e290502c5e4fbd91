package audit

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

// workbook appends rows sheet by sheet.
type workbook struct {
	file        *excelize.File
	sheet       string
	row         int
	headerStyle int
}

func newWorkbook() *workbook {
	return &workbook{file: excelize.NewFile()}
}

func (w *workbook) addSheet(name string) error {
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}

	if w.sheet == "" {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet %s: %w", name, err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}

	w.sheet = name
	w.row = 1
	return nil
}

func (w *workbook) header(columns ...string) error {
	if w.headerStyle == 0 {
		style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return fmt.Errorf("header style: %w", err)
		}
		w.headerStyle = style
	}

	values := make([]any, len(columns))
	for i, c := range columns {
		values[i] = c
	}
	if err := w.append(values...); err != nil {
		return err
	}

	first, _ := excelize.CoordinatesToCellName(1, w.row-1)
	last, _ := excelize.CoordinatesToCellName(len(columns), w.row-1)
	if err := w.file.SetCellStyle(w.sheet, first, last, w.headerStyle); err != nil {
		return err
	}

	lastCol, _ := excelize.ColumnNumberToName(len(columns))
	return w.file.SetColWidth(w.sheet, "A", lastCol, 18)
}

func (w *workbook) append(values ...any) error {
	if w.sheet == "" {
		return fmt.Errorf("no active sheet")
	}
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		return err
	}
	if err := w.file.SetSheetRow(w.sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", w.sheet, w.row, err)
	}
	w.row++
	return nil
}

func (w *workbook) save(out io.Writer) error {
	if idx, err := w.file.GetSheetIndex(sheetReservations); err == nil && idx >= 0 {
		w.file.SetActiveSheet(idx)
	}
	return w.file.Write(out)
}

func (w *workbook) close() error {
	return w.file.Close()
}
