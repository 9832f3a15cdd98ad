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
	"strings"

	"github.com/RedHatInsights/insights-operator-utils/evaluator"
	"github.com/rs/zerolog/log"

	"github.com/telcom-noc/alarm-escalation-service/types"
)

// Variables available in site filter expression
const (
	alarmsVariable  = "alarms"
	outagesVariable = "outages"
)

// SiteGroup contains all enriched alarms of one site
type SiteGroup struct {
	SiteID  types.SiteID
	Records []types.EnrichedRecord
}

// roleBinding selects recipient column and alarms relevant for one role
type roleBinding struct {
	role      types.RecipientRole
	recipient func(contact *types.ContactMapping) string
	applies   func(record *types.EnrichedRecord) bool
}

func allRecords(*types.EnrichedRecord) bool {
	return true
}

func outageRecords(record *types.EnrichedRecord) bool {
	return record.Alarm.IsSiteDown
}

var roleBindings = []roleBinding{
	{
		role:      types.Technician,
		recipient: func(c *types.ContactMapping) string { return c.TechnicianChatID },
		applies:   allRecords,
	},
	{
		role:      types.Supervisor,
		recipient: func(c *types.ContactMapping) string { return c.SupervisorChatID },
		applies:   allRecords,
	},
	{
		role:      types.ClusterEngineer,
		recipient: func(c *types.ContactMapping) string { return c.CEChatID },
		applies:   outageRecords,
	},
}

// GroupingStats contains counts reported by Grouper
type GroupingStats struct {
	Sites             int
	SitesSkipped      int
	InvalidRecipients int
}

// Grouper turns enriched alarms into escalation tasks
type Grouper struct {
	siteFilter string
}

// NewGrouper creates grouper with given site filter expression. Blank
// expression admits every site.
func NewGrouper(siteFilter string) *Grouper {
	return &Grouper{siteFilter: strings.TrimSpace(siteFilter)}
}

// GroupBySite partitions records by site. Groups are returned in order of
// first appearance of the site, records keep their original order.
func GroupBySite(records []types.EnrichedRecord) []SiteGroup {
	var groups []SiteGroup
	positions := make(map[types.SiteID]int)

	for _, record := range records {
		position, found := positions[record.Alarm.SiteID]
		if !found {
			position = len(groups)
			positions[record.Alarm.SiteID] = position
			groups = append(groups, SiteGroup{SiteID: record.Alarm.SiteID})
		}
		groups[position].Records = append(groups[position].Records, record)
	}

	return groups
}

// BuildTasks creates one task per site, role and valid recipient
func (g *Grouper) BuildTasks(records []types.EnrichedRecord) ([]types.EscalationTask, GroupingStats, error) {
	var (
		tasks []types.EscalationTask
		stats GroupingStats
	)

	for _, group := range GroupBySite(records) {
		admitted, err := g.admits(group)
		if err != nil {
			return nil, stats, err
		}
		if !admitted {
			stats.SitesSkipped++
			SitesSkipped.Inc()
			log.Debug().Str(siteIDAttribute, string(group.SiteID)).Msg("Site rejected by site filter")
			continue
		}
		stats.Sites++

		for _, binding := range roleBindings {
			subset := selectRecords(group.Records, binding.applies)
			if len(subset) == 0 {
				continue
			}

			recipients, invalid := collectRecipients(group.SiteID, subset, binding)
			stats.InvalidRecipients += invalid

			for _, recipient := range recipients {
				tasks = append(tasks, types.EscalationTask{
					SiteID:    group.SiteID,
					Role:      binding.role,
					Recipient: recipient,
					Records:   subset,
				})
			}
		}
	}

	EscalationTasks.Add(float64(len(tasks)))
	log.Info().
		Int("sites", stats.Sites).
		Int("sites skipped", stats.SitesSkipped).
		Int("invalid recipients", stats.InvalidRecipients).
		Int("tasks", len(tasks)).
		Msg("Escalation tasks prepared")

	return tasks, stats, nil
}

// admits evaluates site filter expression for given group
func (g *Grouper) admits(group SiteGroup) (bool, error) {
	if g.siteFilter == "" {
		return true, nil
	}

	outages := 0
	for i := range group.Records {
		if group.Records[i].Alarm.IsSiteDown {
			outages++
		}
	}

	values := map[string]int{
		alarmsVariable:  len(group.Records),
		outagesVariable: outages,
	}

	result, err := evaluator.Evaluate(g.siteFilter, values)
	if err != nil {
		return false, &SiteFilterError{Expression: g.siteFilter, Err: err}
	}
	return result != 0, nil
}

func selectRecords(records []types.EnrichedRecord, predicate func(*types.EnrichedRecord) bool) []types.EnrichedRecord {
	var subset []types.EnrichedRecord
	for i := range records {
		if predicate(&records[i]) {
			subset = append(subset, records[i])
		}
	}
	return subset
}

// collectRecipients returns distinct valid chat identifiers found in given
// records, in order of first appearance, and number of distinct invalid
// values
func collectRecipients(siteID types.SiteID, records []types.EnrichedRecord, binding roleBinding) ([]types.ChatID, int) {
	var (
		recipients []types.ChatID
		invalid    int
	)
	seen := make(map[types.ChatID]struct{})
	seenInvalid := make(map[string]struct{})

	for i := range records {
		if records[i].Contact == nil {
			continue
		}
		value := strings.TrimSpace(binding.recipient(records[i].Contact))
		if value == "" {
			continue
		}

		chatID, ok := types.ParseChatID(value)
		if !ok {
			if _, found := seenInvalid[value]; found {
				continue
			}
			seenInvalid[value] = struct{}{}
			invalid++
			InvalidRecipients.Inc()
			log.Debug().
				Str(siteIDAttribute, string(siteID)).
				Str(roleAttribute, binding.role.String()).
				Str("value", value).
				Msg("Invalid chat identifier skipped")
			continue
		}

		if _, found := seen[chatID]; found {
			continue
		}
		seen[chatID] = struct{}{}
		recipients = append(recipients, chatID)
	}

	return recipients, invalid
}
