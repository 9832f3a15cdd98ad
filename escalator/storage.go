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

// This source file contains an implementation of interface between Go code
// and SQL database (PostgreSQL or SQLite) used to keep normalized alarms.
//
// Every alarm is stored as one JSON document together with few columns
// used for filtering and cleanup.

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"           // PostgreSQL database driver
	_ "github.com/mattn/go-sqlite3" // SQLite database driver

	"github.com/rs/zerolog/log"

	"github.com/telcom-noc/alarm-escalation-service/conf"
	"github.com/telcom-noc/alarm-escalation-service/types"
)

// Storage represents an interface to almost any database or storage system
type Storage interface {
	Close() error
	EnsureAlarmTable() error
	WriteAlarmDocuments(runID string, documents []types.AlarmDocument) (int, error)
	ReadOpenAlarms() ([]types.AlarmDocument, error)
	PrintOldAlarmsForCleanup(maxAge string) error
	CleanupOldAlarms(maxAge string) (int, error)
}

// DBStorage is an implementation of Storage interface that use selected SQL
// like database. Documents are stored into table named by collection
// configuration option.
type DBStorage struct {
	connection    *sql.DB
	dbDriverType  types.DBDriver
	table         string
	logSQLQueries bool
}

// OpenEscalationStatus marks alarms that are still being escalated
const OpenEscalationStatus = "OPEN"

// error messages
const (
	unableToCloseDBRowsHandle = "Unable to close DB rows handle"
	unableToRollback          = "Unable to rollback transaction"
)

// other messages
const (
	MaxAgeAttribute     = "max age"
	InsertedAtAttribute = "inserted at"
	RunIDAttribute      = "run ID"
	TableAttribute      = "table"
)

// SQL statements, %s is replaced by validated table name
const (
	createAlarmTableStatement = `
		CREATE TABLE IF NOT EXISTS %s (
			run_id            VARCHAR NOT NULL,
			site_id           VARCHAR NOT NULL,
			tt_number         VARCHAR NOT NULL,
			escalation_status VARCHAR NOT NULL,
			document          TEXT NOT NULL,
			inserted_at       TIMESTAMP NOT NULL
		)
`

	insertAlarmDocumentStatement = `
		INSERT INTO %s
		       (run_id, site_id, tt_number, escalation_status, document, inserted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
`

	selectOpenAlarmsQuery = `
		SELECT document
		  FROM %s
		 WHERE escalation_status = $1
		 ORDER BY inserted_at
`

	displayOldAlarmsQuery = `
		SELECT run_id, site_id, tt_number, inserted_at
		  FROM %s
		 WHERE inserted_at < $1
		 ORDER BY inserted_at
`

	deleteOldAlarmsStatement = `
		DELETE
		  FROM %s
		 WHERE inserted_at < $1
`
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrInvalidTableName is returned for collection names that can not be used
// as SQL identifier
var ErrInvalidTableName = errors.New("invalid table name")

// NewStorage function creates and initializes a new instance of Storage
// interface
func NewStorage(configuration conf.StorageConfiguration) (*DBStorage, error) {
	driverType, driverName, dataSource, err := initAndGetDriver(configuration)
	if err != nil {
		return nil, err
	}

	if !tableNamePattern.MatchString(configuration.Collection) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTableName, configuration.Collection)
	}

	log.Info().
		Str("driver", driverName).
		Str(TableAttribute, configuration.Collection).
		Msg("Making connection to data storage")

	connection, err := sql.Open(driverName, dataSource)
	if err != nil {
		log.Error().Err(err).Msg("Can not connect to data storage")
		return nil, err
	}

	storage := NewFromConnection(connection, driverType, configuration.Collection)
	storage.logSQLQueries = configuration.LogSQLQueries
	return storage, nil
}

// NewFromConnection function creates and initializes a new instance of
// Storage interface from prepared connection
func NewFromConnection(connection *sql.DB, dbDriverType types.DBDriver, table string) *DBStorage {
	return &DBStorage{
		connection:   connection,
		dbDriverType: dbDriverType,
		table:        table,
	}
}

// initAndGetDriver checks if driver is supported and returns driver type,
// driver name and data source
func initAndGetDriver(configuration conf.StorageConfiguration) (driverType types.DBDriver, driverName, dataSource string, err error) {
	driverName = configuration.Driver

	switch driverName {
	case "sqlite3":
		driverType = types.DBDriverSQLite3
		dataSource = configuration.SQLiteDataSource
	case "postgres":
		driverType = types.DBDriverPostgres
		dataSource = fmt.Sprintf(
			"postgresql://%v:%v@%v:%v/%v?%v",
			configuration.PGUsername,
			configuration.PGPassword,
			configuration.PGHost,
			configuration.PGPort,
			configuration.PGDBName,
			configuration.PGParams,
		)
	default:
		err = fmt.Errorf("driver %v is not supported", driverName)
		return
	}

	return
}

func (storage *DBStorage) statement(template string) string {
	statement := fmt.Sprintf(template, storage.table)
	if storage.logSQLQueries {
		log.Debug().Str("statement", statement).Msg("SQL statement")
	}
	return statement
}

// Close method closes the connection to database. Needs to be called at
// the end of application lifecycle.
func (storage *DBStorage) Close() error {
	log.Info().Msg("Closing connection to data storage")
	if storage.connection != nil {
		err := storage.connection.Close()
		if err != nil {
			log.Error().Err(err).Msg("Can not close connection to data storage")
			return err
		}
	}
	return nil
}

// EnsureAlarmTable creates table for alarm documents if it does not exist
func (storage *DBStorage) EnsureAlarmTable() error {
	_, err := storage.connection.Exec(storage.statement(createAlarmTableStatement))
	if err != nil {
		return &StorageError{Operation: "create table", Err: err}
	}
	return nil
}

// WriteAlarmDocuments inserts all documents in one transaction and returns
// number of inserted rows. Empty input is not an error.
func (storage *DBStorage) WriteAlarmDocuments(runID string, documents []types.AlarmDocument) (inserted int, err error) {
	if len(documents) == 0 {
		return 0, nil
	}

	tx, err := storage.connection.Begin()
	if err != nil {
		return 0, &StorageError{Operation: "begin", Err: err}
	}
	defer func() {
		if err != nil {
			inserted = 0
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				log.Error().Err(rollbackErr).Msg(unableToRollback)
			}
		}
	}()

	statement := storage.statement(insertAlarmDocumentStatement)
	insertedAt := time.Now().UTC()

	for _, document := range documents {
		payload, err := json.Marshal(document)
		if err != nil {
			return inserted, &StorageError{Operation: "serialize", Err: err}
		}

		_, err = tx.Exec(statement,
			runID,
			documentValue(document, types.FieldSiteID),
			documentValue(document, types.FieldTTNumber),
			documentValue(document, types.FieldEscalationStatus),
			string(payload),
			insertedAt)
		if err != nil {
			return inserted, &StorageError{Operation: "insert", Err: err}
		}
		inserted++
	}

	if err = tx.Commit(); err != nil {
		return inserted, &StorageError{Operation: "commit", Err: err}
	}

	StoredDocuments.Add(float64(inserted))
	log.Info().Str(RunIDAttribute, runID).Int("documents", inserted).Msg("Alarm documents stored")
	return inserted, nil
}

// documentValue returns textual value of document key, nil is stored as
// empty string
func documentValue(document types.AlarmDocument, key string) string {
	value, ok := document[key].(string)
	if !ok {
		return ""
	}
	return value
}

// ReadOpenAlarms reads all stored alarms with OPEN escalation status
func (storage *DBStorage) ReadOpenAlarms() ([]types.AlarmDocument, error) {
	documents := make([]types.AlarmDocument, 0)

	rows, err := storage.connection.Query(storage.statement(selectOpenAlarmsQuery), OpenEscalationStatus)
	if err != nil {
		return documents, &StorageError{Operation: "read open alarms", Err: err}
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error().Err(err).Msg(unableToCloseDBRowsHandle)
		}
	}()

	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return documents, &StorageError{Operation: "read open alarms", Err: err}
		}

		var document types.AlarmDocument
		if err := json.Unmarshal([]byte(payload), &document); err != nil {
			return documents, &StorageError{Operation: "deserialize", Err: err}
		}
		documents = append(documents, document)
	}

	if err := rows.Err(); err != nil {
		return documents, &StorageError{Operation: "read open alarms", Err: err}
	}
	return documents, nil
}

// PrintOldAlarmsForCleanup method prints all stored alarms older than
// specified relative time
func (storage *DBStorage) PrintOldAlarmsForCleanup(maxAge string) error {
	cutoff, err := cutoffTime(maxAge, time.Now())
	if err != nil {
		return err
	}

	log.Info().Str(MaxAgeAttribute, maxAge).Msg("PrintOldAlarmsForCleanup operation")

	rows, err := storage.connection.Query(storage.statement(displayOldAlarmsQuery), cutoff)
	if err != nil {
		return &StorageError{Operation: "read old alarms", Err: err}
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error().Err(err).Msg(unableToCloseDBRowsHandle)
		}
	}()

	for rows.Next() {
		var (
			runID      string
			siteID     string
			ttNumber   string
			insertedAt time.Time
		)

		if err := rows.Scan(&runID, &siteID, &ttNumber, &insertedAt); err != nil {
			return &StorageError{Operation: "read old alarms", Err: err}
		}

		age := int(math.Ceil(time.Since(insertedAt).Hours() / 24))
		log.Info().
			Str(RunIDAttribute, runID).
			Str(siteIDAttribute, siteID).
			Str(ttNumberAttribute, ttNumber).
			Str(InsertedAtAttribute, insertedAt.Format(time.RFC3339)).
			Int("age in days", age).
			Msg("Old alarm")
	}

	return rows.Err()
}

// CleanupOldAlarms method deletes all stored alarms older than specified
// relative time
func (storage *DBStorage) CleanupOldAlarms(maxAge string) (int, error) {
	cutoff, err := cutoffTime(maxAge, time.Now())
	if err != nil {
		return 0, err
	}

	statement := storage.statement(deleteOldAlarmsStatement)
	log.Info().
		Str(MaxAgeAttribute, maxAge).
		Str(TableAttribute, storage.table).
		Msg("Cleanup operation for stored alarms")

	result, err := storage.connection.Exec(statement, cutoff)
	if err != nil {
		return 0, &StorageError{Operation: "cleanup", Err: err}
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, &StorageError{Operation: "cleanup", Err: err}
	}
	return int(affected), nil
}

// ErrInvalidMaxAge is returned when max age can not be parsed
var ErrInvalidMaxAge = errors.New("invalid max age")

// units accepted in "N units" max age format
var maxAgeUnits = map[string]time.Duration{
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
	"week":   7 * 24 * time.Hour,
}

// ParseMaxAge parses max age given either in PostgreSQL interval style
// ("90 days", "1 week") or as Go duration ("36h")
func ParseMaxAge(maxAge string) (time.Duration, error) {
	maxAge = strings.TrimSpace(maxAge)
	if maxAge == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidMaxAge)
	}

	if duration, err := time.ParseDuration(maxAge); err == nil {
		if duration <= 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidMaxAge, maxAge)
		}
		return duration, nil
	}

	fields := strings.Fields(maxAge)
	if len(fields) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMaxAge, maxAge)
	}

	count, err := strconv.Atoi(fields[0])
	if err != nil || count <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMaxAge, maxAge)
	}

	unit, found := maxAgeUnits[strings.TrimSuffix(strings.ToLower(fields[1]), "s")]
	if !found {
		return 0, fmt.Errorf("%w: unknown unit in %q", ErrInvalidMaxAge, maxAge)
	}

	return time.Duration(count) * unit, nil
}

func cutoffTime(maxAge string, now time.Time) (time.Time, error) {
	duration, err := ParseMaxAge(maxAge)
	if err != nil {
		return time.Time{}, err
	}
	return now.UTC().Add(-duration), nil
}

// AlarmDocumentFromRecord converts record into plain document. Missing
// values are represented by nil.
func AlarmDocumentFromRecord(record *types.AlarmRecord) types.AlarmDocument {
	document := make(types.AlarmDocument, len(alarmColumns)+1)
	for _, column := range alarmColumns {
		if value, found := record.Field(column); found {
			document[column] = value
		} else {
			document[column] = nil
		}
	}
	document[types.FieldIsSiteDown] = record.IsSiteDown
	return document
}

// AlarmDocuments converts all records into documents
func AlarmDocuments(records []types.AlarmRecord) []types.AlarmDocument {
	documents := make([]types.AlarmDocument, len(records))
	for i := range records {
		documents[i] = AlarmDocumentFromRecord(&records[i])
	}
	return documents
}
