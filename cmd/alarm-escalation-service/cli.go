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

package main

import (
	"flag"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/telcom-noc/alarm-escalation-service/conf"
	"github.com/telcom-noc/alarm-escalation-service/escalator"
	"github.com/telcom-noc/alarm-escalation-service/types"
)

const (
	versionMessage = "Alarm escalation service version 1.0"
	authorsMessage = "NOC Automation team, Telcom"
)

// showVersion function displays version information.
func showVersion() {
	fmt.Println(versionMessage)
}

// showAuthors function displays information about authors.
func showAuthors() {
	fmt.Println(authorsMessage)
}

// setupCliFlags defines and parses all command line options
func setupCliFlags() types.CliFlags {
	var cliFlags types.CliFlags
	flag.StringVar(&cliFlags.Preprocess, "preprocess", "", "normalize given raw export file or the newest export in given directory")
	flag.BoolVar(&cliFlags.PreprocessRawInput, "preprocess-raw-input", false, "normalize raw input configured in files.raw_input")
	flag.BoolVar(&cliFlags.Escalate, "escalate", false, "send escalation digests for active alarms")
	flag.BoolVar(&cliFlags.PrintOpenAlarms, "print-open-alarms", false, "print stored alarms with OPEN escalation status")
	flag.BoolVar(&cliFlags.PrintOldAlarmsForCleanup, "print-old-alarms-for-cleanup", false, "print stored alarms to be cleaned up")
	flag.BoolVar(&cliFlags.PerformOldAlarmsCleanup, "old-alarms-cleanup", false, "perform stored alarms clean up")
	flag.StringVar(&cliFlags.MaxAge, "max-age", "", "max age for displaying/cleaning old records")
	flag.BoolVar(&cliFlags.ShowVersion, "show-version", false, "show version and exit")
	flag.BoolVar(&cliFlags.ShowAuthors, "show-authors", false, "show authors and exit")
	flag.BoolVar(&cliFlags.ShowConfiguration, "show-configuration", false, "show configuration and exit")
	flag.BoolVar(&cliFlags.Verbose, "verbose", false, "verbose logs")
	flag.Parse()
	return cliFlags
}

// showConfiguration function displays actual configuration. Secrets are
// omitted.
func showConfiguration(config *conf.ConfigStruct) {
	filesConfig := conf.GetFilesConfiguration(config)
	log.Info().
		Str("Raw input", filesConfig.RawInput).
		Int("Raw header row", filesConfig.RawHeaderRow).
		Str("Normalized output", filesConfig.NormalizedOutput).
		Str("Mapping file", filesConfig.MappingFile).
		Msg("Files configuration")

	telegramConfig := conf.GetTelegramConfiguration(config)
	log.Info().
		Bool("Bot token set", telegramConfig.BotToken != "").
		Str("API URL", telegramConfig.APIURL).
		Str("Parse mode", telegramConfig.ParseMode).
		Str("Timeout", telegramConfig.Timeout.String()).
		Int("Max message length", telegramConfig.MaxMessageLength).
		Bool("Test mode", telegramConfig.TestMode).
		Str("Test chat ID", telegramConfig.TestChatID).
		Msg("Telegram configuration")

	brokerConfig := conf.GetKafkaBrokerConfiguration(config)
	log.Info().
		Bool("Enabled", brokerConfig.Enabled).
		Str("Addresses", brokerConfig.Addresses).
		Str("SecurityProtocol", brokerConfig.SecurityProtocol).
		Str("SaslMechanism", brokerConfig.SaslMechanism).
		Str("Topic", brokerConfig.Topic).
		Str("Timeout", brokerConfig.Timeout.String()).
		Msg("Broker configuration")

	storageConfig := conf.GetStorageConfiguration(config)
	log.Info().
		Bool("Enabled", storageConfig.Enabled).
		Str("Driver", storageConfig.Driver).
		Str("DB Name", storageConfig.PGDBName).
		Str("Username", storageConfig.PGUsername).
		Str("Host", storageConfig.PGHost).
		Int("Port", storageConfig.PGPort).
		Str("Collection", storageConfig.Collection).
		Bool("LogSQLQueries", storageConfig.LogSQLQueries).
		Msg("Storage configuration")

	loggingConfig := conf.GetLoggingConfiguration(config)
	log.Info().
		Str("Level", loggingConfig.LogLevel).
		Bool("Pretty colored debug logging", loggingConfig.Debug).
		Bool("Use stderr", loggingConfig.UseStderr).
		Bool("Sentry", loggingConfig.LoggingToSentryEnabled).
		Bool("CloudWatch", loggingConfig.LoggingToCloudWatchEnabled).
		Bool("Kafka", loggingConfig.LoggingToKafkaEnabled).
		Str("Log file", conf.GetLogFileConfiguration(config).Path).
		Msg("Logging configuration")

	// authentication token is omitted
	metricsConfig := conf.GetMetricsConfiguration(config)
	log.Info().
		Str("Namespace", metricsConfig.Namespace).
		Str("Subsystem", metricsConfig.Subsystem).
		Str("Push Gateway", metricsConfig.GatewayURL).
		Int("Retries", metricsConfig.Retries).
		Str("Retry after", metricsConfig.RetryAfter.String()).
		Msg("Metrics configuration")

	processingConfig := conf.GetProcessingConfiguration(config)
	log.Info().
		Bool("Filter allowed clusters", processingConfig.FilterAllowedClusters).
		Strs("List of allowed clusters", processingConfig.AllowedClusters).
		Bool("Filter blocked clusters", processingConfig.FilterBlockedClusters).
		Strs("List of blocked clusters", processingConfig.BlockedClusters).
		Msg("Processing configuration")

	log.Info().
		Str("Site filter", conf.GetEscalationConfiguration(config).SiteFilter).
		Str("Cleaner max age", conf.GetCleanerConfiguration(config).MaxAge).
		Msg("Escalation configuration")
}

// checkArgs function handles command line options passed to the process.
// The second return value is true when the process should exit with
// returned status.
func checkArgs(args *types.CliFlags) (int, bool) {
	switch {
	case args.ShowVersion:
		showVersion()
		return escalator.ExitStatusOK, true
	case args.ShowAuthors:
		showAuthors()
		return escalator.ExitStatusOK, true
	case args.ShowConfiguration:
		// config not loaded yet, just skip the rest of function for
		// now
		return escalator.ExitStatusOK, false
	case args.PrintOpenAlarms,
		args.PrintOldAlarmsForCleanup,
		args.PerformOldAlarmsCleanup:
		// DB only operations, no need for additional args
		return escalator.ExitStatusOK, false
	default:
	}

	if args.Preprocess == "" && !args.PreprocessRawInput && !args.Escalate {
		log.Error().Msg("Either -preprocess, -preprocess-raw-input or -escalate needs to be specified on command line")
		return escalator.ExitStatusConfiguration, true
	}
	return escalator.ExitStatusOK, false
}
