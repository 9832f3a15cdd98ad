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
package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/telcom-noc/alarm-escalation-service/conf"
	"github.com/telcom-noc/alarm-escalation-service/escalator"
	"github.com/telcom-noc/alarm-escalation-service/types"
)

func TestCheckArgs(t *testing.T) {
	testcases := []struct {
		name       string
		cliFlags   types.CliFlags
		wantStatus int
		wantStop   bool
	}{
		{"show version", types.CliFlags{ShowVersion: true}, escalator.ExitStatusOK, true},
		{"show authors", types.CliFlags{ShowAuthors: true}, escalator.ExitStatusOK, true},
		{"show configuration", types.CliFlags{ShowConfiguration: true}, escalator.ExitStatusOK, false},
		{"print open alarms", types.CliFlags{PrintOpenAlarms: true}, escalator.ExitStatusOK, false},
		{"print old alarms", types.CliFlags{PrintOldAlarmsForCleanup: true}, escalator.ExitStatusOK, false},
		{"cleanup", types.CliFlags{PerformOldAlarmsCleanup: true}, escalator.ExitStatusOK, false},
		{"preprocess", types.CliFlags{Preprocess: "export.xlsx"}, escalator.ExitStatusOK, false},
		{"preprocess configured input", types.CliFlags{PreprocessRawInput: true}, escalator.ExitStatusOK, false},
		{"escalate", types.CliFlags{Escalate: true}, escalator.ExitStatusOK, false},
		{"no flags", types.CliFlags{}, escalator.ExitStatusConfiguration, true},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			status, stop := checkArgs(&tc.cliFlags)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantStop, stop)
		})
	}
}

func TestShowConfiguration(t *testing.T) {
	config := conf.ConfigStruct{
		Telegram: conf.TelegramConfiguration{BotToken: "123456:secret"},
	}
	assert.NotPanics(t, func() { showConfiguration(&config) })
}
