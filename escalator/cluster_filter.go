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
	"github.com/RedHatInsights/insights-operator-utils/collections"

	"github.com/telcom-noc/alarm-escalation-service/conf"
	"github.com/telcom-noc/alarm-escalation-service/types"
	"github.com/telcom-noc/alarm-escalation-service/utils"
)

// clusterCandidates are consulted in this order to find cluster of alarm
var clusterCandidates = []string{types.FieldCluster, MappingClusterColumn}

// ClusterFilterStatistic is a structure containing elementary statistic
// about records being filtered by filterRecordsByCluster function. It can
// be used for logging and debugging purposes.
type ClusterFilterStatistic struct {
	Input    int
	Allowed  int
	Blocked  int
	Filtered int
}

// recordCluster returns cluster of the alarm or of its site
func recordCluster(record *types.EnrichedRecord) string {
	return utils.FirstAvailable(record.Field, clusterCandidates, "")
}

// filterRecordsByCluster function filters enriched alarms according to
// given allow list and block list
func filterRecordsByCluster(records []types.EnrichedRecord, configuration conf.ProcessingConfiguration) ([]types.EnrichedRecord, ClusterFilterStatistic) {
	stat := ClusterFilterStatistic{}

	// don't process records at all if filtering is completely disabled
	if !configuration.FilterAllowedClusters && !configuration.FilterBlockedClusters {
		stat.Input = len(records)
		stat.Filtered = len(records)
		return records, stat
	}

	filtered := []types.EnrichedRecord{}

	for i := range records {
		cluster := recordCluster(&records[i])
		stat.Input++

		// alarm might be explicitly allowed if allow list is enabled,
		// block list is not consulted then
		if configuration.FilterAllowedClusters {
			if collections.StringInSlice(cluster, configuration.AllowedClusters) {
				stat.Allowed++
				stat.Filtered++
				filtered = append(filtered, records[i])
			}
			continue
		}

		if collections.StringInSlice(cluster, configuration.BlockedClusters) {
			stat.Blocked++
			continue
		}
		stat.Filtered++
		filtered = append(filtered, records[i])
	}

	FilteredRecords.Add(float64(stat.Input - stat.Filtered))
	return filtered, stat
}
