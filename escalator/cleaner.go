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
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/telcom-noc/alarm-escalation-service/types"
)

// Messages
const (
	databasePrintOldAlarmsForCleanupOperationFailedMessage = "Print stored alarms prepared for cleanup failed"
	databaseCleanupOldAlarmsOperationFailedMessage         = "Cleanup of stored alarms failed"
	rowsDeletedMessage                                     = "Rows deleted"
)

// ErrUnknownCleanupOperation is returned when no cleanup operation has been
// selected on command line
var ErrUnknownCleanupOperation = errors.New("unknown operation selected")

// PerformCleanupOperation function performs selected cleanup operation
func PerformCleanupOperation(storage Storage, cliFlags types.CliFlags) error {
	switch {
	case cliFlags.PrintOldAlarmsForCleanup:
		return printOldAlarmsForCleanup(storage, cliFlags)
	case cliFlags.PerformOldAlarmsCleanup:
		return performOldAlarmsCleanup(storage, cliFlags)
	default:
		return ErrUnknownCleanupOperation
	}
}

// printOldAlarmsForCleanup function prints all stored alarms that are older
// than specified max age.
func printOldAlarmsForCleanup(storage Storage, cliFlags types.CliFlags) error {
	err := storage.PrintOldAlarmsForCleanup(cliFlags.MaxAge)
	if err != nil {
		log.Error().Err(err).Msg(databasePrintOldAlarmsForCleanupOperationFailedMessage)
		return err
	}

	return nil
}

// performOldAlarmsCleanup function deletes all stored alarms that are older
// than specified max age.
func performOldAlarmsCleanup(storage Storage, cliFlags types.CliFlags) error {
	affected, err := storage.CleanupOldAlarms(cliFlags.MaxAge)
	if err != nil {
		log.Error().Err(err).Msg(databaseCleanupOldAlarmsOperationFailedMessage)
		return err
	}
	log.Info().Int(rowsDeletedMessage, affected).Msg("Cleanup of stored alarms finished")

	return nil
}
