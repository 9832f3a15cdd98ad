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

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/telcom-noc/alarm-escalation-service/types"
)

// Column labels that exist only in raw exports
const (
	// ClearedDateTimeColumn contains the clearance timestamp
	ClearedDateTimeColumn = "ClearedDateTime"

	// the portal misspells escalation status column
	portalEscalationStatusColumn = "EsclationStatus"
)

// alarmColumns are written into normalized file in this order, followed by
// the derived Is_SiteDown column
var alarmColumns = []string{
	types.FieldOpenTime,
	types.FieldTTNumber,
	types.FieldCluster,
	types.FieldSiteID,
	types.FieldSiteName,
	types.FieldSourceInput,
	types.FieldEventName,
	types.FieldClusterEngineer,
	types.FieldTechnician,
	types.FieldEscalationStatus,
}

// columnAliases contains alternative spellings accepted for a column
var columnAliases = map[string][]string{
	types.FieldEscalationStatus: {portalEscalationStatusColumn},
}

// timestampLayouts contains all textual timestamp formats accepted in
// OpenTime and ClearedDateTime columns
var timestampLayouts = []string{
	types.OpenTimeLayout,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006",
	"02-Jan-2006 15:04:05",
	"02-Jan-2006 15:04",
}

// highest serial number Excel can represent (9999-12-31)
const maxExcelSerialDate = 2958465

// NormalizationStats contains counts reported by the normalizer
type NormalizationStats struct {
	Before   int
	After    int
	Warnings []ParseWarning
}

// ParseTimestamp parses timestamp stored either as text or as Excel serial
// date. Empty values yield nil without error.
func ParseTimestamp(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}

	if serial, err := strconv.ParseFloat(value, 64); err == nil && serial > 0 && serial <= maxExcelSerialDate {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return &t, nil
		}
	}

	return nil, fmt.Errorf("unknown timestamp format %q", value)
}

// resolveColumns finds position of every required column. All missing
// columns are reported at once.
func resolveColumns(table Table, required []string, source string) (map[string]int, error) {
	index := table.ColumnIndex()
	positions := make(map[string]int, len(required))
	var missing []string

	for _, column := range required {
		if position, found := index[column]; found {
			positions[column] = position
			continue
		}
		found := false
		for _, alias := range columnAliases[column] {
			if position, ok := index[alias]; ok {
				positions[column] = position
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, column)
		}
	}

	if len(missing) > 0 {
		return nil, &SchemaError{Source: source, Missing: missing}
	}
	return positions, nil
}

// NormalizeTable selects the required columns from raw export, parses
// timestamps, drops cleared alarms and derives outage flag
func NormalizeTable(table Table, source string) ([]types.AlarmRecord, NormalizationStats, error) {
	required := append(append([]string{}, alarmColumns...), ClearedDateTimeColumn)

	positions, err := resolveColumns(table, required, source)
	if err != nil {
		SchemaErrors.Inc()
		return nil, NormalizationStats{}, err
	}

	stats := NormalizationStats{Before: len(table.Rows)}
	records := make([]types.AlarmRecord, 0, len(table.Rows))

	for i, row := range table.Rows {
		cell := func(column string) string {
			return row[positions[column]]
		}

		clearedAt, err := ParseTimestamp(cell(ClearedDateTimeColumn))
		if err != nil {
			stats.Warnings = append(stats.Warnings, parseWarning(i, ClearedDateTimeColumn, cell(ClearedDateTimeColumn)))
		}
		if clearedAt != nil {
			continue
		}

		record := alarmRecordFromCells(cell)
		openTime, err := ParseTimestamp(cell(types.FieldOpenTime))
		if err != nil {
			stats.Warnings = append(stats.Warnings, parseWarning(i, types.FieldOpenTime, cell(types.FieldOpenTime)))
		}
		record.OpenTime = openTime
		records = append(records, record)
	}

	stats.After = len(records)
	RawRecordsRead.Add(float64(stats.Before))
	ActiveRecords.Add(float64(stats.After))

	log.Info().
		Str(fileAttribute, source).
		Int("before", stats.Before).
		Int("after", stats.After).
		Int("cleared", stats.Before-stats.After).
		Int("parse warnings", len(stats.Warnings)).
		Msg("Alarm export normalized")

	return records, stats, nil
}

func parseWarning(row int, column, value string) ParseWarning {
	warning := ParseWarning{Row: row + 1, Column: column, Value: value}
	ParseWarnings.Inc()
	log.Warn().Err(warning).Msg("Timestamp set to null")
	return warning
}

func alarmRecordFromCells(cell func(string) string) types.AlarmRecord {
	record := types.AlarmRecord{
		TTNumber:         types.TTNumber(cell(types.FieldTTNumber)),
		Cluster:          cell(types.FieldCluster),
		SiteID:           types.SiteID(types.CanonicalKey(cell(types.FieldSiteID))),
		SiteName:         cell(types.FieldSiteName),
		SourceInput:      cell(types.FieldSourceInput),
		EventName:        cell(types.FieldEventName),
		ClusterEngineer:  cell(types.FieldClusterEngineer),
		Technician:       cell(types.FieldTechnician),
		EscalationStatus: cell(types.FieldEscalationStatus),
	}
	record.IsSiteDown = types.IsOutage(record.EventName)
	return record
}

// NormalizeFile normalizes raw export and stores the result into output
// path. Output is not touched when the export can not be normalized.
func NormalizeFile(inputPath string, headerRow int, outputPath string) ([]types.AlarmRecord, NormalizationStats, error) {
	table, err := ReadTable(inputPath, headerRow)
	if err != nil {
		return nil, NormalizationStats{}, err
	}

	records, stats, err := NormalizeTable(table, inputPath)
	if err != nil {
		return nil, stats, err
	}

	if err := WriteNormalizedRecords(outputPath, records); err != nil {
		return nil, stats, err
	}
	log.Info().Str(fileAttribute, outputPath).Int("records", len(records)).Msg("Normalized alarms saved")

	return records, stats, nil
}

// WriteNormalizedRecords writes records into delimited file. Prior content
// is replaced atomically.
func WriteNormalizedRecords(path string, records []types.AlarmRecord) (err error) {
	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0750); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(directory, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	writer := csv.NewWriter(tmp)
	header := append(append([]string{}, alarmColumns...), types.FieldIsSiteDown)
	if err = writer.Write(header); err != nil {
		return err
	}

	for i := range records {
		if err = writer.Write(normalizedRow(&records[i])); err != nil {
			return err
		}
	}

	writer.Flush()
	if err = writer.Error(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func normalizedRow(record *types.AlarmRecord) []string {
	row := make([]string, 0, len(alarmColumns)+1)
	for _, column := range alarmColumns {
		value, _ := record.Field(column)
		row = append(row, value)
	}
	if record.IsSiteDown {
		row = append(row, "True")
	} else {
		row = append(row, "False")
	}
	return row
}

// ReadNormalizedRecords reads file written by WriteNormalizedRecords. The
// outage flag is always derived again from event name.
func ReadNormalizedRecords(path string) ([]types.AlarmRecord, error) {
	table, err := ReadTable(path, 0)
	if err != nil {
		return nil, err
	}

	positions, err := resolveColumns(table, alarmColumns, path)
	if err != nil {
		SchemaErrors.Inc()
		return nil, err
	}

	records := make([]types.AlarmRecord, 0, len(table.Rows))
	for i, row := range table.Rows {
		cell := func(column string) string {
			return row[positions[column]]
		}

		record := alarmRecordFromCells(cell)
		openTime, err := ParseTimestamp(cell(types.FieldOpenTime))
		if err != nil {
			parseWarning(i, types.FieldOpenTime, cell(types.FieldOpenTime))
		}
		record.OpenTime = openTime
		records = append(records, record)
	}

	log.Info().Str(fileAttribute, path).Int("records", len(records)).Msg("Normalized alarms read")
	return records, nil
}
