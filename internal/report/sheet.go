package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

// workbook writes rows sheet by sheet.
type workbook struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
}

func newWorkbook() *workbook {
	return &workbook{file: excelize.NewFile()}
}

// addSheet starts a new sheet. The first call renames the default sheet.
func (w *workbook) addSheet(name string) error {
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}

	if w.currentSheet == "" {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet %s: %w", name, err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}

	w.currentSheet = name
	w.currentRow = 1
	return nil
}

func (w *workbook) writeHeader(columns []string) error {
	row := make([]any, len(columns))
	for i, c := range columns {
		row[i] = c
	}
	if err := w.writeRow(row); err != nil {
		return err
	}

	style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	start, err := excelize.CoordinatesToCellName(1, w.currentRow-1)
	if err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(len(columns), w.currentRow-1)
	if err != nil {
		return err
	}
	if err := w.file.SetCellStyle(w.currentSheet, start, end, style); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := w.file.SetPanes(w.currentSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}
	return nil
}

func (w *workbook) writeRow(row []any) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}
	cell, err := excelize.CoordinatesToCellName(1, w.currentRow)
	if err != nil {
		return err
	}
	if err := w.file.SetSheetRow(w.currentSheet, cell, &row); err != nil {
		return err
	}
	w.currentRow++
	return nil
}

func (w *workbook) save(out io.Writer) error {
	return w.file.Write(out)
}

func (w *workbook) close() error {
	return w.file.Close()
}
