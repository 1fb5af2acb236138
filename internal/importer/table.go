package importer

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReadCSV decodes an uploaded CSV (UTF-8, or UTF-8/UTF-16 with BOM) into
// trimmed records. Each non-blank line is one record and is split on its
// own: a line that is not well-formed CSV falls back to a plain comma
// split, so a stray quote never spills into the following rows.
func ReadCSV(raw []byte) ([][]string, error) {
	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for _, line := range strings.Split(string(decoded), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if row := trimCells(splitLine(line)); row != nil {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func splitLine(line string) []string {
	reader := csv.NewReader(strings.NewReader(line))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	record, err := reader.Read()
	if err != nil {
		return strings.Split(line, ",")
	}
	return record
}

// ReadXLSX returns the rows of the first sheet of a workbook, with the same
// trimming as ReadCSV.
func ReadXLSX(blob []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for _, record := range records {
		if row := trimCells(record); row != nil {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func trimCells(record []string) []string {
	row := make([]string, len(record))
	empty := true
	for i, c := range record {
		row[i] = strings.TrimSpace(c)
		if row[i] != "" {
			empty = false
		}
	}
	if empty && len(row) <= 1 {
		return nil
	}
	return row
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func indexOf(header []string, names ...string) int {
	for i, h := range header {
		for _, n := range names {
			if h == n {
				return i
			}
		}
	}
	return -1
}
