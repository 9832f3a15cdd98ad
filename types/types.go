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

// Package types contains all data types shared by the alarm escalation
// service packages.
package types

import (
	"time"
)

// SiteID represents identifier of a radio site as exported by the fault
// management portal (the GLOBAL_ID in the site mapping table).
type SiteID string

// ChatID represents canonical numeric identifier of a Telegram chat.
type ChatID int64

// TTNumber represents trouble ticket number.
type TTNumber string

// DBDriver type for db driver enum
type DBDriver int

const (
	// DBDriverSQLite3 shows that db driver is sqlite
	DBDriverSQLite3 DBDriver = iota
	// DBDriverPostgres shows that db driver is postgres
	DBDriverPostgres
	// DBDriverGeneral general sql(used for mock now)
	DBDriverGeneral
)

// OutageKeywords contains upper-cased event names that mean that the whole
// radio access of a site is down.
var OutageKeywords = map[string]struct{}{
	"2G OUTAGE": {},
	"3G OUTAGE": {},
	"4G OUTAGE": {},
}

// AlarmRecord represents one active alarm taken from the raw export.
type AlarmRecord struct {
	// OpenTime is nil when the source value was missing or unparseable
	OpenTime         *time.Time
	TTNumber         TTNumber
	Cluster          string
	SiteID           SiteID
	SiteName         string
	SourceInput      string
	EventName        string
	ClusterEngineer  string
	Technician       string
	EscalationStatus string
	IsSiteDown       bool
}

// ContactMapping represents one row of site to contact mapping table.
// Empty strings stand for missing (null) cells.
type ContactMapping struct {
	GlobalID         SiteID
	TechnicianChatID string
	SupervisorChatID string
	CEChatID         string
	SiteName         string
	Cluster          string

	// Attributes contains all cells of the mapping row keyed by normalized
	// column label, including the ones listed above.
	Attributes map[string]string
}

// EnrichedRecord is an alarm record joined with its (optional) contact
// mapping row.
type EnrichedRecord struct {
	Alarm AlarmRecord

	// Contact is nil when no mapping row matched the alarm's site
	Contact *ContactMapping
}

// RecipientRole represents who should receive a digest.
type RecipientRole int

// Recipient roles as enum
const (
	Technician RecipientRole = iota
	Supervisor
	ClusterEngineer
)

// AllRoles contains all recipient roles in the order they are processed.
var AllRoles = []RecipientRole{Technician, Supervisor, ClusterEngineer}

// String returns human readable name of given role
func (r RecipientRole) String() string {
	switch r {
	case Technician:
		return "Technician"
	case Supervisor:
		return "Supervisor"
	case ClusterEngineer:
		return "Cluster Engineer"
	}
	return "Unknown"
}

// EscalationTask is one unit of outbound notification work: the digest
// for one site sent to one recipient in given role.
type EscalationTask struct {
	SiteID    SiteID
	Role      RecipientRole
	Recipient ChatID
	Records   []EnrichedRecord
}

// AlarmDocument is a plain-value mapping handed over to the persistent
// store. Missing values are represented by nil.
type AlarmDocument map[string]interface{}

// ProducerMessage is a raw message produced to a broker.
type ProducerMessage []byte

// EscalationEvent represents the content of a message describing one
// escalation task produced into the configured Kafka topic.
type EscalationEvent struct {
	RunID          string `json:"run_id"`
	SiteID         SiteID `json:"site_id"`
	Role           string `json:"role"`
	Recipient      ChatID `json:"recipient"`
	Alarms         int    `json:"alarms"`
	ChunksSent     int    `json:"chunks_sent"`
	ChunksFailed   int    `json:"chunks_failed"`
	TestMode       bool   `json:"test_mode"`
	Timestamp      string `json:"timestamp"`
	SiteDownAlert  bool   `json:"site_down_alert"`
	DeliveryTarget ChatID `json:"delivery_target"`
}

// DispatchResult contains number of chunks attempted and failed for one
// delivered digest.
type DispatchResult struct {
	Target    ChatID
	Attempted int
	Failed    int
}

// RoleSummary contains counters related to one recipient role.
type RoleSummary struct {
	Recipients     int
	Alarms         int
	SendsAttempted int
	SendsFailed    int
}

// RunSummary contains all counters reported at the end of one escalation
// run. RawRecords, ClearedRecords and ParseWarnings come from normalization
// of the raw export; RecordsActive is number of active alarms entering
// escalation and RecordsAfter number of them left after cluster filter.
type RunSummary struct {
	RunID             string
	RawRecords        int
	ClearedRecords    int
	ParseWarnings     int
	RecordsActive     int
	RecordsAfter      int
	RecordsEnriched   int
	JoinMisses        int
	Sites             int
	InvalidRecipients int
	Roles             map[RecipientRole]*RoleSummary
}

// NewRunSummary creates summary with all role counters initialized to zero.
func NewRunSummary(runID string) RunSummary {
	roles := make(map[RecipientRole]*RoleSummary, len(AllRoles))
	for _, role := range AllRoles {
		roles[role] = &RoleSummary{}
	}
	return RunSummary{
		RunID: runID,
		Roles: roles,
	}
}

// CliFlags represents structure holding all command line arguments/flags.
type CliFlags struct {
	Preprocess               string
	PreprocessRawInput       bool
	Escalate                 bool
	ShowVersion              bool
	ShowAuthors              bool
	ShowConfiguration        bool
	PrintOpenAlarms          bool
	PrintOldAlarmsForCleanup bool
	PerformOldAlarmsCleanup  bool
	Verbose                  bool
	MaxAge                   string
}
