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

// Entry point to the alarm escalation service.
//
// The service takes the alarm export downloaded from the fault management
// portal, removes alarms that are already cleared and stores the remaining
// ones into normalized file (and optionally into database). In escalation
// mode the active alarms are joined with the site contact mapping, grouped
// by site and sent as digests to technicians, supervisors and, for full
// site outages, to cluster engineers through Telegram.
//
// Every dispatched digest can be announced as an escalation event into a
// Kafka topic and all counters are pushed to Prometheus push gateway at the
// end of the run.
package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/telcom-noc/alarm-escalation-service/conf"
	"github.com/telcom-noc/alarm-escalation-service/escalator"
	"github.com/telcom-noc/alarm-escalation-service/logger"
)

// Configuration-related constants
const (
	loadConfigurationMessage = "Load configuration"
)

func main() {
	cliFlags := setupCliFlags()
	if status, stop := checkArgs(&cliFlags); stop {
		os.Exit(status)
	}

	// config has exactly the same structure as *.toml file
	config, err := conf.LoadConfiguration(conf.ConfigFileEnvVariableName, conf.DefaultConfigFileName)
	if err != nil {
		log.Err(err).Msg(loadConfigurationMessage)
		os.Exit(escalator.ExitStatusConfiguration)
	}

	err = logger.InitLogging(&config)
	if err != nil {
		log.Err(err).Msg(loadConfigurationMessage)
		os.Exit(escalator.ExitStatusConfiguration)
	}

	// configuration is loaded, so it would be possible to display it if
	// asked by user
	if cliFlags.ShowConfiguration {
		showConfiguration(&config)
		os.Exit(escalator.ExitStatusOK)
	}

	// override default value by one read from configuration file
	if cliFlags.MaxAge == "" {
		cliFlags.MaxAge = conf.GetCleanerConfiguration(&config).MaxAge
	}

	if cliFlags.Verbose {
		showConfiguration(&config)
	}

	status := escalator.Run(config, cliFlags)
	logger.Close()
	os.Exit(status)
}
