package sheets

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"

	"orderdesk/internal"
)

// XLSX keeps the order sheet as a local workbook, with the same tabs and
// columns as the hosted sheet.
type XLSX struct {
	path string
	mu   sync.Mutex
}

func NewXLSX(path string) *XLSX {
	return &XLSX{path: path}
}

func (x *XLSX) Submit(_ context.Context, payload internal.SheetPayload) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	fresh := false
	f, err := excelize.OpenFile(x.path)
	if errors.Is(err, fs.ErrNotExist) {
		f = excelize.NewFile()
		fresh = true
		err = nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	tab := TabName(payload)
	idx, err := f.GetSheetIndex(tab)
	if err != nil {
		return err
	}
	if idx < 0 {
		if _, err := f.NewSheet(tab); err != nil {
			return err
		}
		if err := writeRow(f, tab, 1, toAny(Headers)); err != nil {
			return err
		}
		if fresh && tab != "Sheet1" {
			_ = f.DeleteSheet("Sheet1")
		}
	}

	rows, err := f.GetRows(tab)
	if err != nil {
		return err
	}
	next := len(rows) + 1
	for _, row := range Rows(payload) {
		if err := writeRow(f, tab, next, row); err != nil {
			return err
		}
		next++
	}

	if err := os.MkdirAll(filepath.Dir(x.path), 0o755); err != nil {
		return err
	}
	return f.SaveAs(x.path)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
