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

// This source file contains the message builder that renders escalation
// digests in Telegram HTML parse mode.

import (
	"fmt"
	"html"
	"strings"

	"github.com/telcom-noc/alarm-escalation-service/types"
	"github.com/telcom-noc/alarm-escalation-service/utils"
)

// StandardAlarmNameColumn is an optional mapping column with unified alarm
// name
const StandardAlarmNameColumn = "Standard_Alarm_Name"

// Placeholders for missing values
const (
	unknownValue   = "Unknown"
	noTicketValue  = "N/A"
	emptyAlarmName = ""
)

// layout of alarm open time in digests
const digestTimeLayout = "2006-01-02 15:04"

var (
	siteNameCandidates  = []string{types.FieldSiteName, MappingSiteNameColumn}
	alarmNameCandidates = []string{StandardAlarmNameColumn, types.FieldEventName}
)

// digestHeader returns the first line of digest for given role
func digestHeader(role types.RecipientRole) string {
	if role == types.ClusterEngineer {
		return "🚨 <b>Site Down Alert</b>"
	}
	return fmt.Sprintf("🚨 <b>%s Alarm Escalation</b>", html.EscapeString(role.String()))
}

// BuildMessage renders digest for given escalation task
func BuildMessage(task types.EscalationTask) string {
	var builder strings.Builder

	builder.WriteString(digestHeader(task.Role))
	builder.WriteString("\n\n")

	siteName, cluster := unknownValue, unknownValue
	if len(task.Records) > 0 {
		first := &task.Records[0]
		siteName = utils.FirstAvailable(first.Field, siteNameCandidates, unknownValue)
		cluster = utils.FirstAvailable(first.Field, clusterCandidates, unknownValue)
	}

	fmt.Fprintf(&builder, "<b>Site ID:</b> %s\n", html.EscapeString(string(task.SiteID)))
	fmt.Fprintf(&builder, "<b>Site Name:</b> %s\n", html.EscapeString(siteName))
	fmt.Fprintf(&builder, "<b>Cluster:</b> %s\n\n", html.EscapeString(cluster))

	for i := range task.Records {
		writeAlarmBlock(&builder, &task.Records[i])
	}

	return builder.String()
}

func writeAlarmBlock(builder *strings.Builder, record *types.EnrichedRecord) {
	alarmName := utils.FirstAvailable(record.Field, alarmNameCandidates, emptyAlarmName)
	ticket := utils.FirstAvailable(record.Field, []string{types.FieldTTNumber}, noTicketValue)
	operator := utils.FirstAvailable(record.Field, []string{types.FieldSourceInput}, unknownValue)

	openTime := unknownValue
	if record.Alarm.OpenTime != nil {
		openTime = record.Alarm.OpenTime.Format(digestTimeLayout)
	}

	fmt.Fprintf(builder, "• <b>Alarm:</b> %s\n", html.EscapeString(alarmName))
	fmt.Fprintf(builder, "  🕐 %s | 🎫 TT: %s\n", openTime, html.EscapeString(ticket))
	fmt.Fprintf(builder, "  👤 Operator: %s\n\n", html.EscapeString(operator))
}
