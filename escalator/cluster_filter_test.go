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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/telcom-noc/alarm-escalation-service/conf"
	"github.com/telcom-noc/alarm-escalation-service/types"
)

func clusterRecords() []types.EnrichedRecord {
	return []types.EnrichedRecord{
		{Alarm: types.AlarmRecord{SiteID: "1", Cluster: "KHI-NORTH"}},
		{Alarm: types.AlarmRecord{SiteID: "2", Cluster: "KHI-SOUTH"}},
		{Alarm: types.AlarmRecord{SiteID: "3", Cluster: "LAB"}},
		// cluster known only from site mapping
		{
			Alarm:   types.AlarmRecord{SiteID: "4"},
			Contact: &types.ContactMapping{Attributes: map[string]string{"ONE_ATC_CLUSTER": "LAB"}},
		},
	}
}

func TestFilterRecordsByClusterDisabled(t *testing.T) {
	records := clusterRecords()

	filtered, stat := filterRecordsByCluster(records, conf.ProcessingConfiguration{})

	assert.Equal(t, records, filtered)
	assert.Equal(t, ClusterFilterStatistic{Input: 4, Filtered: 4}, stat)
}

func TestFilterRecordsByClusterAllowList(t *testing.T) {
	configuration := conf.ProcessingConfiguration{
		FilterAllowedClusters: true,
		AllowedClusters:       []string{"KHI-NORTH", "KHI-SOUTH"},
		FilterBlockedClusters: true,
		BlockedClusters:       []string{"KHI-NORTH"},
	}

	filtered, stat := filterRecordsByCluster(clusterRecords(), configuration)

	// block list is not consulted when allow list is enabled
	assert.Len(t, filtered, 2)
	assert.Equal(t, types.SiteID("1"), filtered[0].Alarm.SiteID)
	assert.Equal(t, types.SiteID("2"), filtered[1].Alarm.SiteID)
	assert.Equal(t, ClusterFilterStatistic{Input: 4, Allowed: 2, Filtered: 2}, stat)
}

func TestFilterRecordsByClusterBlockList(t *testing.T) {
	configuration := conf.ProcessingConfiguration{
		FilterBlockedClusters: true,
		BlockedClusters:       []string{"LAB"},
	}

	filtered, stat := filterRecordsByCluster(clusterRecords(), configuration)

	assert.Len(t, filtered, 2)
	assert.Equal(t, ClusterFilterStatistic{Input: 4, Blocked: 2, Filtered: 2}, stat)
}

func TestFilterRecordsByClusterEmptyInput(t *testing.T) {
	configuration := conf.ProcessingConfiguration{
		FilterBlockedClusters: true,
		BlockedClusters:       []string{"LAB"},
	}

	filtered, stat := filterRecordsByCluster(nil, configuration)

	assert.Empty(t, filtered)
	assert.Equal(t, ClusterFilterStatistic{}, stat)
}
