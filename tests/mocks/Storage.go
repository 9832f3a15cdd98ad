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

package mocks

import (
	mock "github.com/stretchr/testify/mock"
	types "github.com/telcom-noc/alarm-escalation-service/types"
)

// Storage is a mock type for the Storage type
type Storage struct {
	mock.Mock
}

// Close provides a mock function with given fields:
func (_m *Storage) Close() error {
	ret := _m.Called()

	var r0 error
	if rf, ok := ret.Get(0).(func() error); ok {
		r0 = rf()
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// EnsureAlarmTable provides a mock function with given fields:
func (_m *Storage) EnsureAlarmTable() error {
	ret := _m.Called()

	var r0 error
	if rf, ok := ret.Get(0).(func() error); ok {
		r0 = rf()
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// WriteAlarmDocuments provides a mock function with given fields: runID, documents
func (_m *Storage) WriteAlarmDocuments(runID string, documents []types.AlarmDocument) (int, error) {
	ret := _m.Called(runID, documents)

	var r0 int
	if rf, ok := ret.Get(0).(func(string, []types.AlarmDocument) int); ok {
		r0 = rf(runID, documents)
	} else {
		r0 = ret.Int(0)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(string, []types.AlarmDocument) error); ok {
		r1 = rf(runID, documents)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// ReadOpenAlarms provides a mock function with given fields:
func (_m *Storage) ReadOpenAlarms() ([]types.AlarmDocument, error) {
	ret := _m.Called()

	var r0 []types.AlarmDocument
	if rf, ok := ret.Get(0).(func() []types.AlarmDocument); ok {
		r0 = rf()
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]types.AlarmDocument)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func() error); ok {
		r1 = rf()
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// PrintOldAlarmsForCleanup provides a mock function with given fields: maxAge
func (_m *Storage) PrintOldAlarmsForCleanup(maxAge string) error {
	ret := _m.Called(maxAge)

	var r0 error
	if rf, ok := ret.Get(0).(func(string) error); ok {
		r0 = rf(maxAge)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// CleanupOldAlarms provides a mock function with given fields: maxAge
func (_m *Storage) CleanupOldAlarms(maxAge string) (int, error) {
	ret := _m.Called(maxAge)

	var r0 int
	if rf, ok := ret.Get(0).(func(string) int); ok {
		r0 = rf(maxAge)
	} else {
		r0 = ret.Int(0)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(string) error); ok {
		r1 = rf(maxAge)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}
