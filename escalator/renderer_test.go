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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/telcom-noc/alarm-escalation-service/escalator"
	"github.com/telcom-noc/alarm-escalation-service/types"
)

func TestBuildMessageTechnician(t *testing.T) {
	openTime := time.Date(2024, 5, 1, 10, 30, 45, 0, time.UTC)
	task := types.EscalationTask{
		SiteID: "12345",
		Role:   types.Technician,
		Records: []types.EnrichedRecord{
			{
				Alarm: types.AlarmRecord{
					OpenTime:    &openTime,
					TTNumber:    "TT-1",
					SiteID:      "12345",
					SiteName:    "Clifton",
					Cluster:     "KHI-NORTH",
					SourceInput: "NOC",
					EventName:   "MAINS FAILURE",
				},
			},
		},
	}

	expected := "🚨 <b>Technician Alarm Escalation</b>\n\n" +
		"<b>Site ID:</b> 12345\n" +
		"<b>Site Name:</b> Clifton\n" +
		"<b>Cluster:</b> KHI-NORTH\n\n" +
		"• <b>Alarm:</b> MAINS FAILURE\n" +
		"  🕐 2024-05-01 10:30 | 🎫 TT: TT-1\n" +
		"  👤 Operator: NOC\n\n"

	assert.Equal(t, expected, escalator.BuildMessage(task))
}

func TestBuildMessageSiteDownAlertUsesFallbacks(t *testing.T) {
	task := types.EscalationTask{
		SiteID: "12345",
		Role:   types.ClusterEngineer,
		Records: []types.EnrichedRecord{
			{
				Alarm: types.AlarmRecord{SiteID: "12345", EventName: "2G OUTAGE", IsSiteDown: true},
				Contact: &types.ContactMapping{
					Attributes: map[string]string{
						"SITE_NAME":           "Clifton Block 5",
						"ONE_ATC_CLUSTER":     "KHI-NORTH",
						"Standard_Alarm_Name": "2G Site Down",
					},
				},
			},
		},
	}

	message := escalator.BuildMessage(task)

	assert.True(t, strings.HasPrefix(message, "🚨 <b>Site Down Alert</b>\n\n"))
	assert.Contains(t, message, "<b>Site Name:</b> Clifton Block 5\n")
	assert.Contains(t, message, "<b>Cluster:</b> KHI-NORTH\n")
	assert.Contains(t, message, "• <b>Alarm:</b> 2G Site Down\n")
	assert.Contains(t, message, "  🕐 Unknown | 🎫 TT: N/A\n")
	assert.Contains(t, message, "  👤 Operator: Unknown\n")
}

func TestBuildMessageUnknownSite(t *testing.T) {
	task := types.EscalationTask{
		SiteID:  "12345",
		Role:    types.Supervisor,
		Records: []types.EnrichedRecord{{Alarm: types.AlarmRecord{SiteID: "12345"}}},
	}

	message := escalator.BuildMessage(task)

	assert.True(t, strings.HasPrefix(message, "🚨 <b>Supervisor Alarm Escalation</b>"))
	assert.Contains(t, message, "<b>Site Name:</b> Unknown\n")
	assert.Contains(t, message, "<b>Cluster:</b> Unknown\n")
	assert.Contains(t, message, "• <b>Alarm:</b> \n")
}

func TestBuildMessageEscapesValues(t *testing.T) {
	task := types.EscalationTask{
		SiteID: "<S&1>",
		Role:   types.Technician,
		Records: []types.EnrichedRecord{
			{Alarm: types.AlarmRecord{SiteName: "A & B", EventName: "<script>", SourceInput: "\"ops\""}},
		},
	}

	message := escalator.BuildMessage(task)

	assert.Contains(t, message, "<b>Site ID:</b> &lt;S&amp;1&gt;\n")
	assert.Contains(t, message, "<b>Site Name:</b> A &amp; B\n")
	assert.Contains(t, message, "<b>Alarm:</b> &lt;script&gt;\n")
	assert.Contains(t, message, "Operator: &#34;ops&#34;\n")
	assert.NotContains(t, message, "<script>")
}

func TestBuildMessageOneBlockPerAlarm(t *testing.T) {
	task := types.EscalationTask{
		SiteID: "1",
		Role:   types.Technician,
		Records: []types.EnrichedRecord{
			{Alarm: types.AlarmRecord{EventName: "A"}},
			{Alarm: types.AlarmRecord{EventName: "B"}},
			{Alarm: types.AlarmRecord{EventName: "C"}},
		},
	}

	assert.Equal(t, 3, strings.Count(escalator.BuildMessage(task), "• <b>Alarm:</b>"))
}
