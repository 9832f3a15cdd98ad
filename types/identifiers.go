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

package types

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// integral float-like text, e.g. "12345.0" or "12345.000"
var integralFloatPattern = regexp.MustCompile(`^(-?\d+)\.0*$`)

// CanonicalKey converts identifier stored either as text or as number into
// canonical textual form so that "12345", "12345.0" and "1.2345e+04" are
// equal join keys. Other values are only trimmed.
func CanonicalKey(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}

	if m := integralFloatPattern.FindStringSubmatch(value); m != nil {
		return m[1]
	}

	if strings.ContainsAny(value, "eE") {
		f, err := strconv.ParseFloat(value, 64)
		if err == nil && isIntegral(f) {
			return strconv.FormatInt(int64(f), 10)
		}
	}

	return value
}

// ParseChatID converts raw cell value into chat identifier. The second
// return value is false for empty, non-numeric, fractional and zero values.
func ParseChatID(value string) (ChatID, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if id, err := strconv.ParseInt(value, 10, 64); err == nil {
		return ChatID(id), id != 0
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil || !isIntegral(f) {
		return 0, false
	}

	id := int64(f)
	return ChatID(id), id != 0
}

func isIntegral(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) &&
		f == math.Trunc(f) && math.Abs(f) < 1<<53
}

// IsOutage returns true when given event name denotes full site outage.
func IsOutage(eventName string) bool {
	_, found := OutageKeywords[strings.ToUpper(eventName)]
	return found
}

// Canonical column labels of alarm records
const (
	FieldOpenTime         = "OpenTime"
	FieldTTNumber         = "TTNumber"
	FieldCluster          = "Cluster"
	FieldSiteID           = "SiteID"
	FieldSiteName         = "SiteName"
	FieldSourceInput      = "SourceInput"
	FieldEventName        = "EventName"
	FieldClusterEngineer  = "ClusterEngineer"
	FieldTechnician       = "Technician"
	FieldEscalationStatus = "EscalationStatus"
	FieldIsSiteDown       = "Is_SiteDown"
)

// OpenTimeLayout is the layout used to store OpenTime in normalized files.
const OpenTimeLayout = "2006-01-02 15:04:05"

// Field returns value of alarm column with given canonical label. The
// second return value is false when the label is unknown or the value is
// missing.
func (a *AlarmRecord) Field(name string) (string, bool) {
	var value string
	switch name {
	case FieldOpenTime:
		if a.OpenTime == nil {
			return "", false
		}
		value = a.OpenTime.Format(OpenTimeLayout)
	case FieldTTNumber:
		value = string(a.TTNumber)
	case FieldCluster:
		value = a.Cluster
	case FieldSiteID:
		value = string(a.SiteID)
	case FieldSiteName:
		value = a.SiteName
	case FieldSourceInput:
		value = a.SourceInput
	case FieldEventName:
		value = a.EventName
	case FieldClusterEngineer:
		value = a.ClusterEngineer
	case FieldTechnician:
		value = a.Technician
	case FieldEscalationStatus:
		value = a.EscalationStatus
	case FieldIsSiteDown:
		value = strconv.FormatBool(a.IsSiteDown)
	default:
		return "", false
	}
	return value, value != ""
}

// Field looks up given label in alarm columns first and then in all
// columns of matched mapping row.
func (r *EnrichedRecord) Field(name string) (string, bool) {
	if value, found := r.Alarm.Field(name); found {
		return value, true
	}
	if r.Contact == nil {
		return "", false
	}
	value, found := r.Contact.Attributes[name]
	return value, found && value != ""
}
