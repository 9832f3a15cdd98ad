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

// Package escalator contains the enrichment and escalation pipeline: raw
// alarm export normalization, join with site contact mapping, grouping of
// alarms by site and recipient role, rendering of digests and their
// delivery through Telegram.
package escalator

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/telcom-noc/alarm-escalation-service/conf"
	"github.com/telcom-noc/alarm-escalation-service/producer"
	"github.com/telcom-noc/alarm-escalation-service/producer/disabled"
	"github.com/telcom-noc/alarm-escalation-service/producer/kafka"
	"github.com/telcom-noc/alarm-escalation-service/producer/telegram"
	"github.com/telcom-noc/alarm-escalation-service/types"
)

// Exit codes
const (
	// ExitStatusOK means that the tool finished with success
	ExitStatusOK = iota
	// ExitStatusConfiguration is an error code related to program configuration
	ExitStatusConfiguration
	// ExitStatusSchemaError is returned when input table misses required columns
	ExitStatusSchemaError
	// ExitStatusInputError is returned when input file can not be read or output written
	ExitStatusInputError
	// ExitStatusStorageError is returned in case of any storage-related error
	ExitStatusStorageError
	// ExitStatusKafkaBrokerError is for kafka broker connection establishment errors
	ExitStatusKafkaBrokerError
	// ExitStatusMetricsError is raised when prometheus metrics cannot be pushed
	ExitStatusMetricsError
	// ExitStatusSiteFilterError is raised when site filter can not be evaluated
	ExitStatusSiteFilterError
	// ExitStatusCleanerError is raised when clean operation is not successful
	ExitStatusCleanerError
	// ExitStatusError is a general error code
	ExitStatusError
)

// Messages
const (
	separator                = "------------------------------------------------------------"
	operationFailedMessage   = "Operation failed"
	metricsPushFailedMessage = "Couldn't push prometheus metrics"
	metricsPushedMessage     = "Metrics pushed successfully"
	deliveryFailedMessage    = "Message chunk not delivered"
	eventNotProducedMessage  = "Escalation event not produced"
	nothingToDoMessage       = "Neither preprocessing nor escalation selected"
)

// Log attributes
const (
	fileAttribute      = "file"
	directoryAttribute = "directory"
	siteIDAttribute    = "site ID"
	ttNumberAttribute  = "TT number"
	roleAttribute      = "role"
	chatIDAttribute    = "chat ID"
	recipientAttribute = "recipient"
)

// Pipeline holds everything one run needs. Storage and Producer are
// optional. Normalization is filled by Preprocess and reported by Escalate.
type Pipeline struct {
	Config        *conf.ConfigStruct
	Dispatcher    *Dispatcher
	Producer      producer.Producer
	Storage       Storage
	RunID         string
	Normalization NormalizationStats
}

// Preprocess normalizes raw export (or the newest export in given
// directory), writes the normalized file and stores documents when storage
// is configured.
func (p *Pipeline) Preprocess(rawInput string) ([]types.AlarmRecord, NormalizationStats, error) {
	filesConfig := conf.GetFilesConfiguration(p.Config)

	path, err := resolveRawInput(rawInput)
	if err != nil {
		return nil, NormalizationStats{}, err
	}

	records, stats, err := NormalizeFile(path, filesConfig.RawHeaderRow, filesConfig.NormalizedOutput)
	if err != nil {
		return nil, stats, err
	}
	p.Normalization = stats

	if p.Storage != nil {
		if err := p.Storage.EnsureAlarmTable(); err != nil {
			return nil, stats, err
		}
		if _, err := p.Storage.WriteAlarmDocuments(p.RunID, AlarmDocuments(records)); err != nil {
			return nil, stats, err
		}
	}

	return records, stats, nil
}

// Escalate joins records with contacts, builds escalation tasks and
// delivers digest for every task. Delivery failures do not stop the run.
func (p *Pipeline) Escalate(ctx context.Context, records []types.AlarmRecord, contacts *ContactIndex) (types.RunSummary, error) {
	summary := types.NewRunSummary(p.RunID)
	summary.RawRecords = p.Normalization.Before
	summary.ClearedRecords = p.Normalization.Before - p.Normalization.After
	summary.ParseWarnings = len(p.Normalization.Warnings)
	summary.RecordsActive = len(records)

	enriched, resolution := contacts.Resolve(records)
	summary.RecordsEnriched = resolution.Enriched
	summary.JoinMisses = resolution.JoinMisses

	enriched, statistic := filterRecordsByCluster(enriched, conf.GetProcessingConfiguration(p.Config))
	log.Info().
		Int("On input", statistic.Input).
		Int("Allowed", statistic.Allowed).
		Int("Blocked", statistic.Blocked).
		Int("Filtered", statistic.Filtered).
		Msg("Filter alarms by cluster")
	summary.RecordsAfter = len(enriched)

	grouper := NewGrouper(conf.GetEscalationConfiguration(p.Config).SiteFilter)
	tasks, grouping, err := grouper.BuildTasks(enriched)
	if err != nil {
		return summary, err
	}
	summary.Sites = grouping.Sites
	summary.InvalidRecipients = grouping.InvalidRecipients

	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result := p.Dispatcher.Dispatch(ctx, task.Recipient, BuildMessage(task))

		roleSummary := summary.Roles[task.Role]
		roleSummary.Recipients++
		roleSummary.Alarms += len(task.Records)
		roleSummary.SendsAttempted += result.Attempted
		roleSummary.SendsFailed += result.Failed

		p.produceEscalationEvent(task, result)
	}

	logRunSummary(&summary)
	return summary, nil
}

// produceEscalationEvent sends audit event about dispatched task. Failures
// are only logged and counted.
func (p *Pipeline) produceEscalationEvent(task types.EscalationTask, result types.DispatchResult) {
	if p.Producer == nil {
		return
	}

	event := types.EscalationEvent{
		RunID:          p.RunID,
		SiteID:         task.SiteID,
		Role:           task.Role.String(),
		Recipient:      task.Recipient,
		Alarms:         len(task.Records),
		ChunksSent:     result.Attempted - result.Failed,
		ChunksFailed:   result.Failed,
		TestMode:       p.Config.Telegram.TestMode,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		SiteDownAlert:  task.Role == types.ClusterEngineer,
		DeliveryTarget: result.Target,
	}

	message, err := json.Marshal(event)
	if err != nil {
		EscalationEventsFailed.Inc()
		log.Error().Err(err).Msg(eventNotProducedMessage)
		return
	}

	if _, _, err := p.Producer.ProduceMessage(message); err != nil {
		EscalationEventsFailed.Inc()
		log.Error().Err(err).Str(siteIDAttribute, string(task.SiteID)).Msg(eventNotProducedMessage)
		return
	}
	EscalationEventsProduced.Inc()
}

func logRunSummary(summary *types.RunSummary) {
	log.Info().
		Str(RunIDAttribute, summary.RunID).
		Int("raw records", summary.RawRecords).
		Int("cleared records", summary.ClearedRecords).
		Int("parse warnings", summary.ParseWarnings).
		Int("active records", summary.RecordsActive).
		Int("records after filter", summary.RecordsAfter).
		Int("records enriched", summary.RecordsEnriched).
		Int("join misses", summary.JoinMisses).
		Int("sites", summary.Sites).
		Int("invalid recipients", summary.InvalidRecipients).
		Msg("Escalation summary")

	for _, role := range types.AllRoles {
		roleSummary := summary.Roles[role]
		log.Info().
			Str(roleAttribute, role.String()).
			Int("recipients", roleSummary.Recipients).
			Int("alarms", roleSummary.Alarms).
			Int("sends attempted", roleSummary.SendsAttempted).
			Int("sends failed", roleSummary.SendsFailed).
			Msg("Escalation summary per role")
	}
}

// registerMetrics registers metrics using the provided namespace, if any
func registerMetrics(metricsConfig conf.MetricsConfiguration) {
	if metricsConfig.Namespace != "" {
		log.Info().Str("namespace", metricsConfig.Namespace).Msg("Setting metrics namespace")
		AddMetricsWithNamespaceAndSubsystem(
			metricsConfig.Namespace,
			metricsConfig.Subsystem)
	}
}

// ExitStatusForError maps pipeline errors to process exit status
func ExitStatusForError(err error) int {
	var (
		schemaError     *SchemaError
		inputError      *InputError
		storageError    *StorageError
		kafkaError      *KafkaBrokerError
		siteFilterError *SiteFilterError
	)

	switch {
	case err == nil:
		return ExitStatusOK
	case errors.As(err, &schemaError):
		return ExitStatusSchemaError
	case errors.As(err, &inputError):
		return ExitStatusInputError
	case errors.As(err, &storageError):
		return ExitStatusStorageError
	case errors.As(err, &kafkaError):
		return ExitStatusKafkaBrokerError
	case errors.As(err, &siteFilterError):
		return ExitStatusSiteFilterError
	default:
		return ExitStatusError
	}
}

func cleanupOperationSpecified(cliFlags types.CliFlags) bool {
	return cliFlags.PrintOldAlarmsForCleanup || cliFlags.PerformOldAlarmsCleanup
}

func closeStorage(storage Storage) {
	if storage == nil {
		return
	}
	if err := storage.Close(); err != nil {
		log.Err(err).Msg(operationFailedMessage)
	}
}

func closeProducer(notifier producer.Producer) {
	if notifier == nil {
		return
	}
	if err := notifier.Close(); err != nil {
		log.Err(err).Msg(operationFailedMessage)
	}
}

// setupStorage opens configured storage, nil is returned when storage is
// disabled
func setupStorage(config *conf.ConfigStruct) (Storage, error) {
	storageConfiguration := conf.GetStorageConfiguration(config)
	if !storageConfiguration.Enabled {
		return nil, nil
	}

	storage, err := NewStorage(storageConfiguration)
	if err != nil {
		StorageSetupErrors.Inc()
		return nil, &StorageError{Operation: "connect", Err: err}
	}
	return storage, nil
}

// setupProducer prepares Kafka producer. Disabled producer is used when
// Kafka is not configured or the broker cannot be reached.
func setupProducer(config *conf.ConfigStruct) producer.Producer {
	if !conf.GetKafkaBrokerConfiguration(config).Enabled {
		log.Info().Msg("Broker config for escalation events is disabled")
		return &disabled.Producer{}
	}

	kafkaProducer, err := kafka.New(config)
	if err != nil {
		// escalation events are auxiliary, digests are delivered anyway
		ProducerSetupErrors.Inc()
		log.Err(&KafkaBrokerError{Err: err}).Msg("Escalation events will not be produced")
		return &disabled.Producer{}
	}
	return kafkaProducer
}

// runStorageOperation performs storage only operations selected on
// command line
func runStorageOperation(config *conf.ConfigStruct, cliFlags types.CliFlags) int {
	storage, err := NewStorage(conf.GetStorageConfiguration(config))
	if err != nil {
		StorageSetupErrors.Inc()
		log.Err(err).Msg(operationFailedMessage)
		return ExitStatusStorageError
	}
	defer closeStorage(storage)

	if cliFlags.PrintOpenAlarms {
		documents, err := storage.ReadOpenAlarms()
		if err != nil {
			log.Err(err).Msg(operationFailedMessage)
			return ExitStatusStorageError
		}
		for _, document := range documents {
			log.Info().Interface("alarm", document).Msg("Open alarm")
		}
		log.Info().Int("alarms", len(documents)).Msg("Open alarms read")
		return ExitStatusOK
	}

	if err := PerformCleanupOperation(storage, cliFlags); err != nil {
		return ExitStatusCleanerError
	}
	return ExitStatusOK
}

// Run function is entry point to the escalator. It returns process exit
// status.
func Run(config conf.ConfigStruct, cliFlags types.CliFlags) int {
	registerMetrics(conf.GetMetricsConfiguration(&config))

	if cleanupOperationSpecified(cliFlags) || cliFlags.PrintOpenAlarms {
		return runStorageOperation(&config, cliFlags)
	}

	if cliFlags.Preprocess == "" && !cliFlags.PreprocessRawInput && !cliFlags.Escalate {
		log.Error().Msg(nothingToDoMessage)
		return ExitStatusConfiguration
	}

	if cliFlags.Preprocess == "" && cliFlags.PreprocessRawInput {
		cliFlags.Preprocess = conf.GetFilesConfiguration(&config).RawInput
		if cliFlags.Preprocess == "" {
			log.Error().Msg("Raw input is not configured in files.raw_input")
			return ExitStatusConfiguration
		}
	}

	status := run(&config, cliFlags)

	if conf.GetMetricsConfiguration(&config).GatewayURL != "" {
		log.Info().Msg("Pushing metrics to the configured prometheus gateway.")
		if err := PushMetrics(conf.GetMetricsConfiguration(&config)); err != nil && status == ExitStatusOK {
			status = ExitStatusMetricsError
		}
	}

	log.Info().Int("status", status).Msg("Alarm escalation finished")
	return status
}

func run(config *conf.ConfigStruct, cliFlags types.CliFlags) int {
	runID := uuid.NewString()
	log.Info().Str(RunIDAttribute, runID).Msg("Alarm escalation started")
	log.Info().Msg(separator)

	var contacts *ContactIndex
	if cliFlags.Escalate {
		// all fatal conditions are checked before any file is written
		if err := conf.ValidateConfiguration(config); err != nil {
			log.Err(err).Msg("Invalid configuration")
			return ExitStatusConfiguration
		}

		var err error
		contacts, err = LoadContactMapping(conf.GetFilesConfiguration(config).MappingFile)
		if err != nil {
			log.Err(err).Msg(operationFailedMessage)
			return ExitStatusForError(err)
		}
	}

	storage, err := setupStorage(config)
	if err != nil {
		log.Err(err).Msg(operationFailedMessage)
		return ExitStatusForError(err)
	}
	defer closeStorage(storage)

	pipeline := Pipeline{
		Config:  config,
		Storage: storage,
		RunID:   runID,
	}

	// delivery side is set up before any file is written
	if cliFlags.Escalate {
		telegramConfig := conf.GetTelegramConfiguration(config)
		sender, err := telegram.New(&telegramConfig)
		if err != nil {
			log.Err(err).Msg(operationFailedMessage)
			return ExitStatusConfiguration
		}
		defer func() {
			if err := sender.Close(); err != nil {
				log.Err(err).Msg(operationFailedMessage)
			}
		}()

		pipeline.Dispatcher, err = NewDispatcher(sender, telegramConfig)
		if err != nil {
			log.Err(err).Msg(operationFailedMessage)
			return ExitStatusConfiguration
		}

		notifier := setupProducer(config)
		defer closeProducer(notifier)
		pipeline.Producer = notifier
	}

	var records []types.AlarmRecord
	if cliFlags.Preprocess != "" {
		records, _, err = pipeline.Preprocess(cliFlags.Preprocess)
	} else {
		records, err = ReadNormalizedRecords(conf.GetFilesConfiguration(config).NormalizedOutput)
		pipeline.Normalization = NormalizationStats{Before: len(records), After: len(records)}
	}
	if err != nil {
		log.Err(err).Msg(operationFailedMessage)
		return ExitStatusForError(err)
	}
	log.Info().Msg(separator)

	if !cliFlags.Escalate {
		return ExitStatusOK
	}

	if _, err := pipeline.Escalate(context.Background(), records, contacts); err != nil {
		log.Err(err).Msg(operationFailedMessage)
		return ExitStatusForError(err)
	}
	log.Info().Msg(separator)

	return ExitStatusOK
}
