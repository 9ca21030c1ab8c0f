package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// table is a header row plus data rows, as read from an import source.
type table struct {
	header []string
	rows   [][]string
}

func readSource(path string) (table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readWorkbook(path)
	default:
		return readCSV(path)
	}
}

func readCSV(path string) (table, error) {
	f, err := os.Open(path)
	if err != nil {
		return table{}, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return table{}, errors.New("csv has no header row")
	}
	if err != nil {
		return table{}, fmt.Errorf("read csv header: %w", err)
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return table{}, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, row)
	}

	return table{header: header, rows: rows}, nil
}

func readWorkbook(path string) (table, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = file.Close() }()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return table{}, errors.New("no worksheet found")
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return table{}, fmt.Errorf("read worksheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return table{}, errors.New("worksheet is empty")
	}

	return table{header: rows[0], rows: rows[1:]}, nil
}

// headerIndex maps normalized column names to their position. The first
// occurrence of a repeated column wins.
func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		key := normalizeHeader(name)
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}
	return index
}

func normalizeHeader(header string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header, "\ufeff")))
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
