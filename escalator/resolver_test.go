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

	"github.com/RedHatInsights/insights-operator-utils/tests/helpers"
	"github.com/stretchr/testify/assert"

	"github.com/telcom-noc/alarm-escalation-service/escalator"
	"github.com/telcom-noc/alarm-escalation-service/types"
)

func mappingTable() escalator.Table {
	return escalator.Table{
		Header: []string{"GLOBAL_ID", "Technician_Chat_id", "Supervisor_Chat_id", "CE_Chat_id", "SITE_NAME", "ONE_ATC_CLUSTER", "Standard_Alarm_Name"},
		Rows: [][]string{
			{"12345.0", "111", "222", "333", "Clifton", "KHI-NORTH", "Site down"},
			{"12345", "999", "999", "999", "Duplicate", "KHI-NORTH", ""},
			{"67890", "444", "", "", "Saddar", "KHI-SOUTH", ""},
			{"", "555", "", "", "Nowhere", "", ""},
		},
	}
}

func TestBuildContactIndexKeepsFirstDuplicate(t *testing.T) {
	index, err := escalator.BuildContactIndex(mappingTable(), "mapping.csv")
	helpers.FailOnError(t, err)

	assert.Equal(t, 2, index.Len())
	assert.Equal(t, 1, index.Duplicates)

	contact, found := index.Lookup("12345")
	assert.True(t, found)
	assert.Equal(t, types.SiteID("12345"), contact.GlobalID)
	assert.Equal(t, "111", contact.TechnicianChatID)
	assert.Equal(t, "222", contact.SupervisorChatID)
	assert.Equal(t, "333", contact.CEChatID)
	assert.Equal(t, "Clifton", contact.SiteName)
	assert.Equal(t, "KHI-NORTH", contact.Cluster)
	assert.Equal(t, "Site down", contact.Attributes["Standard_Alarm_Name"])
}

func TestBuildContactIndexCanonicalLookup(t *testing.T) {
	index, err := escalator.BuildContactIndex(mappingTable(), "mapping.csv")
	helpers.FailOnError(t, err)

	_, found := index.Lookup("67890.0")
	assert.True(t, found)

	_, found = index.Lookup("11111")
	assert.False(t, found)
}

func TestBuildContactIndexWithoutChatColumns(t *testing.T) {
	table := escalator.Table{
		Header: []string{"GLOBAL_ID"},
		Rows:   [][]string{{"12345"}},
	}

	index, err := escalator.BuildContactIndex(table, "mapping.csv")
	helpers.FailOnError(t, err)

	contact, found := index.Lookup("12345")
	assert.True(t, found)
	assert.Empty(t, contact.TechnicianChatID)
	assert.Empty(t, contact.CEChatID)
}

func TestBuildContactIndexMissingGlobalID(t *testing.T) {
	table := escalator.Table{
		Header: []string{"SITE_ID", "Technician_Chat_id"},
		Rows:   [][]string{{"12345", "111"}},
	}

	_, err := escalator.BuildContactIndex(table, "mapping.csv")

	var schemaError *escalator.SchemaError
	assert.True(t, errors.As(err, &schemaError))
	assert.Equal(t, []string{"GLOBAL_ID"}, schemaError.Missing)
	assert.Equal(t, "missing required columns in mapping.csv: GLOBAL_ID", err.Error())
}

func TestResolveIsLeftJoin(t *testing.T) {
	index, err := escalator.BuildContactIndex(mappingTable(), "mapping.csv")
	helpers.FailOnError(t, err)

	records := []types.AlarmRecord{
		{SiteID: "12345", TTNumber: "TT-1"},
		{SiteID: "00000", TTNumber: "TT-2"},
		{SiteID: "67890", TTNumber: "TT-3"},
		{SiteID: "12345", TTNumber: "TT-4"},
	}

	enriched, stats := index.Resolve(records)

	assert.Equal(t, escalator.ResolutionStats{Records: 4, Enriched: 3, JoinMisses: 1}, stats)
	assert.Len(t, enriched, len(records))
	for i := range records {
		assert.Equal(t, records[i], enriched[i].Alarm)
	}
	assert.Nil(t, enriched[1].Contact)
	assert.Equal(t, "Clifton", enriched[0].Contact.SiteName)
	assert.Equal(t, "Saddar", enriched[2].Contact.SiteName)
}

func TestResolveEmptyInput(t *testing.T) {
	index, err := escalator.BuildContactIndex(mappingTable(), "mapping.csv")
	helpers.FailOnError(t, err)

	enriched, stats := index.Resolve(nil)

	assert.Empty(t, enriched)
	assert.Equal(t, escalator.ResolutionStats{}, stats)
}

func TestLoadContactMapping(t *testing.T) {
	path := writeFile(t, t.TempDir(), "mapping.csv",
		"GLOBAL_ID,Technician_Chat_id,CE_Chat_id,SITE_NAME",
		"12345.0,111,333,Clifton")

	index, err := escalator.LoadContactMapping(path)
	helpers.FailOnError(t, err)

	contact, found := index.Lookup("12345")
	assert.True(t, found)
	assert.Equal(t, "333", contact.CEChatID)
}
