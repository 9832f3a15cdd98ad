/*
Copyright © 2024 Telcom NOC Automation

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package escalator

// This source file contains readers for tabular inputs: spreadsheets
// exported from the fault management portal, mapping tables maintained by
// the NOC and the normalized delimited files written by this service.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

const utf8BOM = "\ufeff"

// Table is a generic tabular input with normalized header labels. All rows
// have the same number of cells as the header.
type Table struct {
	Header []string
	Rows   [][]string
}

// NormalizeLabel trims the label and replaces spaces with underscores
func NormalizeLabel(label string) string {
	return strings.ReplaceAll(strings.TrimSpace(label), " ", "_")
}

// ReadTable reads the first sheet of spreadsheet or the whole delimited
// file. Rows before headerRow (zero based) are ignored, the header is
// taken from row headerRow.
func ReadTable(path string, headerRow int) (Table, error) {
	var (
		rows [][]string
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err = readSpreadsheetRows(path)
	case ".csv":
		rows, err = readDelimitedRows(path)
	default:
		err = fmt.Errorf("unsupported file format %q", filepath.Ext(path))
	}
	if err != nil {
		return Table{}, &InputError{Path: path, Err: err}
	}

	table, err := newTable(rows, headerRow)
	if err != nil {
		return Table{}, &InputError{Path: path, Err: err}
	}

	log.Debug().
		Str(fileAttribute, path).
		Int("header row", headerRow).
		Int("columns", len(table.Header)).
		Int("rows", len(table.Rows)).
		Msg("Tabular file read")
	return table, nil
}

func readSpreadsheetRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Error().Err(err).Str(fileAttribute, path).Msg("Unable to close spreadsheet")
		}
	}()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New("spreadsheet has no sheets")
	}

	// raw values are needed to get dates as serial numbers instead of
	// strings formatted according to the cell style
	return f.GetRows(sheetName, excelize.Options{RawCellValue: true})
}

func readDelimitedRows(path string) ([][]string, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Error().Err(err).Str(fileAttribute, path).Msg("Unable to close file")
		}
	}()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], utf8BOM)
	}
	return rows, nil
}

func newTable(rows [][]string, headerRow int) (Table, error) {
	if headerRow < 0 || headerRow >= len(rows) {
		return Table{}, fmt.Errorf("header row %d not found, file has %d rows", headerRow, len(rows))
	}

	header := make([]string, len(rows[headerRow]))
	for i, label := range rows[headerRow] {
		header[i] = NormalizeLabel(label)
	}

	table := Table{Header: header}
	for _, row := range rows[headerRow+1:] {
		cells := make([]string, len(header))
		blank := true
		for i := range cells {
			if i < len(row) {
				cells[i] = strings.TrimSpace(row[i])
			}
			if cells[i] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		table.Rows = append(table.Rows, cells)
	}

	return table, nil
}

// ColumnIndex returns position of every header label. When the label is
// repeated the first occurrence wins.
func (t Table) ColumnIndex() map[string]int {
	index := make(map[string]int, len(t.Header))
	for i, label := range t.Header {
		if label == "" {
			continue
		}
		if _, found := index[label]; !found {
			index[label] = i
		}
	}
	return index
}

// LatestExport returns the most recently modified spreadsheet in given
// directory
func LatestExport(directory string) (string, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return "", &InputError{Path: directory, Err: err}
	}

	var (
		latest     string
		latestTime int64
	)
	for _, entry := range entries {
		name := entry.Name()
		// lock files created by office suites
		if entry.IsDir() || strings.HasPrefix(name, "~$") {
			continue
		}
		if !strings.EqualFold(filepath.Ext(name), ".xlsx") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return "", &InputError{Path: directory, Err: err}
		}
		modified := info.ModTime().UnixNano()
		if latest == "" || modified > latestTime {
			latest = filepath.Join(directory, name)
			latestTime = modified
		}
	}

	if latest == "" {
		return "", &InputError{Path: directory, Err: errors.New("no .xlsx export found")}
	}
	return latest, nil
}

// resolveRawInput returns given path or, for a directory, the newest export
// stored in it
func resolveRawInput(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", &InputError{Path: path, Err: err}
	}
	if !info.IsDir() {
		return path, nil
	}

	latest, err := LatestExport(path)
	if err != nil {
		return "", err
	}
	log.Info().Str(directoryAttribute, path).Str(fileAttribute, latest).Msg("Using latest downloaded export")
	return latest, nil
}
