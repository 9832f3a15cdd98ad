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
	"github.com/rs/zerolog/log"

	"github.com/telcom-noc/alarm-escalation-service/types"
)

// Columns of site mapping table
const (
	GlobalIDColumn         = "GLOBAL_ID"
	TechnicianChatIDColumn = "Technician_Chat_id"
	SupervisorChatIDColumn = "Supervisor_Chat_id"
	CEChatIDColumn         = "CE_Chat_id"
	MappingSiteNameColumn  = "SITE_NAME"
	MappingClusterColumn   = "ONE_ATC_CLUSTER"
)

// ContactIndex maps canonical site identifier to its mapping row
type ContactIndex struct {
	contacts   map[types.SiteID]*types.ContactMapping
	Duplicates int
}

// ResolutionStats contains counts reported by Resolve
type ResolutionStats struct {
	Records    int
	Enriched   int
	JoinMisses int
}

// Len returns number of distinct sites in the index
func (index *ContactIndex) Len() int {
	return len(index.contacts)
}

// Lookup returns mapping row for given site
func (index *ContactIndex) Lookup(siteID types.SiteID) (*types.ContactMapping, bool) {
	contact, found := index.contacts[types.SiteID(types.CanonicalKey(string(siteID)))]
	return contact, found
}

// LoadContactMapping reads site mapping table from given file
func LoadContactMapping(path string) (*ContactIndex, error) {
	table, err := ReadTable(path, 0)
	if err != nil {
		return nil, err
	}
	return BuildContactIndex(table, path)
}

// BuildContactIndex creates index from mapping table. Only the GLOBAL_ID
// column is mandatory. When one site is listed more than once, the first
// row is used.
func BuildContactIndex(table Table, source string) (*ContactIndex, error) {
	columns := table.ColumnIndex()
	if _, found := columns[GlobalIDColumn]; !found {
		SchemaErrors.Inc()
		return nil, &SchemaError{Source: source, Missing: []string{GlobalIDColumn}}
	}

	index := &ContactIndex{
		contacts: make(map[types.SiteID]*types.ContactMapping, len(table.Rows)),
	}

	for _, row := range table.Rows {
		attributes := make(map[string]string, len(columns))
		for label, position := range columns {
			attributes[label] = row[position]
		}

		siteID := types.SiteID(types.CanonicalKey(attributes[GlobalIDColumn]))
		if siteID == "" {
			continue
		}
		attributes[GlobalIDColumn] = string(siteID)

		if _, found := index.contacts[siteID]; found {
			index.Duplicates++
			DuplicateMappings.Inc()
			log.Warn().Str(siteIDAttribute, string(siteID)).Msg("Duplicate site in mapping table, first row is used")
			continue
		}

		index.contacts[siteID] = &types.ContactMapping{
			GlobalID:         siteID,
			TechnicianChatID: attributes[TechnicianChatIDColumn],
			SupervisorChatID: attributes[SupervisorChatIDColumn],
			CEChatID:         attributes[CEChatIDColumn],
			SiteName:         attributes[MappingSiteNameColumn],
			Cluster:          attributes[MappingClusterColumn],
			Attributes:       attributes,
		}
	}

	log.Info().
		Str(fileAttribute, source).
		Int("sites", index.Len()).
		Int("duplicates", index.Duplicates).
		Msg("Site mapping loaded")

	return index, nil
}

// Resolve joins every alarm with mapping row of its site. Number and order
// of records is preserved; alarms without mapping get nil contact.
func (index *ContactIndex) Resolve(records []types.AlarmRecord) ([]types.EnrichedRecord, ResolutionStats) {
	stats := ResolutionStats{Records: len(records)}
	enriched := make([]types.EnrichedRecord, len(records))

	for i := range records {
		enriched[i].Alarm = records[i]

		contact, found := index.Lookup(records[i].SiteID)
		if !found {
			stats.JoinMisses++
			JoinMisses.Inc()
			log.Debug().
				Str(siteIDAttribute, string(records[i].SiteID)).
				Str(ttNumberAttribute, string(records[i].TTNumber)).
				Msg("No site mapping found for alarm")
			continue
		}

		enriched[i].Contact = contact
		stats.Enriched++
	}

	log.Info().
		Int("records", stats.Records).
		Int("enriched", stats.Enriched).
		Int("join misses", stats.JoinMisses).
		Msg("Alarms enriched with site contacts")

	return enriched, stats
}
