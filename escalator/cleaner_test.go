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
package escalator_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/telcom-noc/alarm-escalation-service/escalator"
	"github.com/telcom-noc/alarm-escalation-service/tests/mocks"
	"github.com/telcom-noc/alarm-escalation-service/types"
)

func TestPerformCleanupOperationPrint(t *testing.T) {
	storage := &mocks.Storage{}
	storage.On("PrintOldAlarmsForCleanup", "90 days").Return(nil).Once()

	err := escalator.PerformCleanupOperation(storage, types.CliFlags{
		PrintOldAlarmsForCleanup: true,
		MaxAge:                   "90 days",
	})

	assert.NoError(t, err)
	storage.AssertExpectations(t)
}

func TestPerformCleanupOperationPrintError(t *testing.T) {
	storage := &mocks.Storage{}
	storage.On("PrintOldAlarmsForCleanup", "90 days").Return(errors.New("no such table")).Once()

	err := escalator.PerformCleanupOperation(storage, types.CliFlags{
		PrintOldAlarmsForCleanup: true,
		MaxAge:                   "90 days",
	})

	assert.Error(t, err)
	storage.AssertExpectations(t)
}

func TestPerformCleanupOperationDelete(t *testing.T) {
	storage := &mocks.Storage{}
	storage.On("CleanupOldAlarms", "1 week").Return(12, nil).Once()

	err := escalator.PerformCleanupOperation(storage, types.CliFlags{
		PerformOldAlarmsCleanup: true,
		MaxAge:                  "1 week",
	})

	assert.NoError(t, err)
	storage.AssertExpectations(t)
}

func TestPerformCleanupOperationDeleteError(t *testing.T) {
	storage := &mocks.Storage{}
	storage.On("CleanupOldAlarms", "1 week").Return(0, errors.New("locked")).Once()

	err := escalator.PerformCleanupOperation(storage, types.CliFlags{
		PerformOldAlarmsCleanup: true,
		MaxAge:                  "1 week",
	})

	assert.Error(t, err)
	storage.AssertExpectations(t)
}

func TestPerformCleanupOperationNothingSelected(t *testing.T) {
	storage := &mocks.Storage{}

	err := escalator.PerformCleanupOperation(storage, types.CliFlags{})

	assert.True(t, errors.Is(err, escalator.ErrUnknownCleanupOperation))
	storage.AssertNotCalled(t, "CleanupOldAlarms", "")
}
