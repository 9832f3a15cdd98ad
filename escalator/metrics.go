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

// File metrics contains all metrics that needs to be pushed to Prometheus
// push gateway at the end of each run.

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/rs/zerolog/log"

	"github.com/telcom-noc/alarm-escalation-service/conf"
)

// Metrics names
const (
	RawRecordsReadName           = "raw_records_read"
	ActiveRecordsName            = "active_records"
	ParseWarningsName            = "parse_warnings"
	SchemaErrorsName             = "schema_errors"
	JoinMissesName               = "join_misses"
	DuplicateMappingsName        = "duplicate_mappings"
	FilteredRecordsName          = "filtered_records"
	SitesSkippedName             = "sites_skipped"
	InvalidRecipientsName        = "invalid_recipients"
	EscalationTasksName          = "escalation_tasks"
	MessagesSentName             = "messages_sent"
	DeliveryFailuresName         = "delivery_failures"
	StorageSetupErrorsName       = "storage_setup_errors"
	StoredDocumentsName          = "stored_documents"
	ProducerSetupErrorsName      = "producer_setup_errors"
	EscalationEventsProducedName = "escalation_events_produced"
	EscalationEventsFailedName   = "escalation_events_failed"
)

// Metrics helps
const (
	RawRecordsReadHelp           = "The total number of records read from raw alarm exports"
	ActiveRecordsHelp            = "The total number of records without clearance timestamp"
	ParseWarningsHelp            = "The total number of timestamps that could not be parsed"
	SchemaErrorsHelp             = "The total number of inputs rejected because of missing columns"
	JoinMissesHelp               = "The total number of alarms without matching site mapping"
	DuplicateMappingsHelp        = "The total number of ignored duplicate rows in site mapping"
	FilteredRecordsHelp          = "The total number of alarms removed by cluster allow or block list"
	SitesSkippedHelp             = "The total number of sites rejected by site filter expression"
	InvalidRecipientsHelp        = "The total number of chat identifiers that are not valid"
	EscalationTasksHelp          = "The total number of escalation tasks created"
	MessagesSentHelp             = "The total number of message chunks accepted by Telegram"
	DeliveryFailuresHelp         = "The total number of message chunks rejected by Telegram or not delivered at all"
	StorageSetupErrorsHelp       = "The total number of errors when setting up storage connection"
	StoredDocumentsHelp          = "The total number of alarm documents written into storage"
	ProducerSetupErrorsHelp      = "The total number of errors when setting up Kafka producer"
	EscalationEventsProducedHelp = "The total number of escalation events produced to Kafka topic"
	EscalationEventsFailedHelp   = "The total number of escalation events that could not be produced"
)

// PushGatewayClient is a simple wrapper over http.Client so that prometheus
// can do HTTP requests with the given authentication header
type PushGatewayClient struct {
	AuthToken string

	httpClient http.Client
}

// Do is a simple wrapper over http.Client.Do method that includes
// the authentication header configured in the PushGatewayClient instance
func (pgc *PushGatewayClient) Do(request *http.Request) (*http.Response, error) {
	if pgc.AuthToken != "" {
		log.Debug().Msg("Adding authorization header to HTTP request")
		request.Header.Set("Authorization", "Basic "+pgc.AuthToken)
	} else {
		log.Debug().Msg("No authorization token provided. Making HTTP request without credentials.")
	}
	log.Debug().Str("request", request.URL.String()).Str("method", request.Method).Msg("Pushing metrics to Prometheus push gateway")
	resp, err := pgc.httpClient.Do(request)
	if resp != nil {
		log.Debug().Int("code", resp.StatusCode).Msg("Returned status code")
	}
	return resp, err
}

// Exposed counters
var (
	RawRecordsRead           = newCounter(RawRecordsReadName, RawRecordsReadHelp)
	ActiveRecords            = newCounter(ActiveRecordsName, ActiveRecordsHelp)
	ParseWarnings            = newCounter(ParseWarningsName, ParseWarningsHelp)
	SchemaErrors             = newCounter(SchemaErrorsName, SchemaErrorsHelp)
	JoinMisses               = newCounter(JoinMissesName, JoinMissesHelp)
	DuplicateMappings        = newCounter(DuplicateMappingsName, DuplicateMappingsHelp)
	FilteredRecords          = newCounter(FilteredRecordsName, FilteredRecordsHelp)
	SitesSkipped             = newCounter(SitesSkippedName, SitesSkippedHelp)
	InvalidRecipients        = newCounter(InvalidRecipientsName, InvalidRecipientsHelp)
	EscalationTasks          = newCounter(EscalationTasksName, EscalationTasksHelp)
	MessagesSent             = newCounter(MessagesSentName, MessagesSentHelp)
	DeliveryFailures         = newCounter(DeliveryFailuresName, DeliveryFailuresHelp)
	StorageSetupErrors       = newCounter(StorageSetupErrorsName, StorageSetupErrorsHelp)
	StoredDocuments          = newCounter(StoredDocumentsName, StoredDocumentsHelp)
	ProducerSetupErrors      = newCounter(ProducerSetupErrorsName, ProducerSetupErrorsHelp)
	EscalationEventsProduced = newCounter(EscalationEventsProducedName, EscalationEventsProducedHelp)
	EscalationEventsFailed   = newCounter(EscalationEventsFailedName, EscalationEventsFailedHelp)
)

// counterDefinition binds exported counter variable to its name and help
type counterDefinition struct {
	counter *prometheus.Counter
	name    string
	help    string
}

func counterDefinitions() []counterDefinition {
	return []counterDefinition{
		{&RawRecordsRead, RawRecordsReadName, RawRecordsReadHelp},
		{&ActiveRecords, ActiveRecordsName, ActiveRecordsHelp},
		{&ParseWarnings, ParseWarningsName, ParseWarningsHelp},
		{&SchemaErrors, SchemaErrorsName, SchemaErrorsHelp},
		{&JoinMisses, JoinMissesName, JoinMissesHelp},
		{&DuplicateMappings, DuplicateMappingsName, DuplicateMappingsHelp},
		{&FilteredRecords, FilteredRecordsName, FilteredRecordsHelp},
		{&SitesSkipped, SitesSkippedName, SitesSkippedHelp},
		{&InvalidRecipients, InvalidRecipientsName, InvalidRecipientsHelp},
		{&EscalationTasks, EscalationTasksName, EscalationTasksHelp},
		{&MessagesSent, MessagesSentName, MessagesSentHelp},
		{&DeliveryFailures, DeliveryFailuresName, DeliveryFailuresHelp},
		{&StorageSetupErrors, StorageSetupErrorsName, StorageSetupErrorsHelp},
		{&StoredDocuments, StoredDocumentsName, StoredDocumentsHelp},
		{&ProducerSetupErrors, ProducerSetupErrorsName, ProducerSetupErrorsHelp},
		{&EscalationEventsProduced, EscalationEventsProducedName, EscalationEventsProducedHelp},
		{&EscalationEventsFailed, EscalationEventsFailedName, EscalationEventsFailedHelp},
	}
}

func newCounter(name, help string) prometheus.Counter {
	return promauto.NewCounter(prometheus.CounterOpts{
		Name: name,
		Help: help,
	})
}

// AddMetricsWithNamespaceAndSubsystem register the desired metrics using a
// given namespace and subsystem
func AddMetricsWithNamespaceAndSubsystem(namespace, subsystem string) {
	// unregister all metrics and register them again
	for _, definition := range counterDefinitions() {
		prometheus.Unregister(*definition.counter)

		*definition.counter = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      definition.name,
			Help:      definition.help,
		})
	}
}

// PushCollectedMetrics function pushes the metrics to the configured
// prometheus push gateway
func PushCollectedMetrics(metricsConf conf.MetricsConfiguration) error {
	client := PushGatewayClient{metricsConf.GatewayAuthToken, http.Client{}}

	// Creates a pusher to the gateway "$PUSHGW_URL/metrics/job/$(job_name)
	pusher := push.New(metricsConf.GatewayURL, metricsConf.Job)
	for _, definition := range counterDefinitions() {
		pusher = pusher.Collector(*definition.counter)
	}

	return pusher.Client(&client).Push()
}

// ErrMetricsNotPushed is returned when all attempts to push metrics failed
var ErrMetricsNotPushed = errors.New("metrics could not be pushed to push gateway")

// PushMetrics pushes metrics and retries according to configuration when
// push gateway does not accept them
func PushMetrics(metricsConf conf.MetricsConfiguration) error {
	err := PushCollectedMetrics(metricsConf)
	if err == nil {
		log.Info().Msg(metricsPushedMessage)
		return nil
	}
	log.Err(err).Msg(metricsPushFailedMessage)

	if metricsConf.RetryAfter == 0 || metricsConf.Retries == 0 {
		return ErrMetricsNotPushed
	}

	for i := metricsConf.Retries; i > 0; i-- {
		time.Sleep(metricsConf.RetryAfter)
		log.Info().Msgf("Push metrics. Retrying (%d/%d attempts left)", i, metricsConf.Retries)
		err = PushCollectedMetrics(metricsConf)
		if err == nil {
			log.Info().Msg(metricsPushedMessage)
			return nil
		}
		log.Err(err).Msg(metricsPushFailedMessage)
	}

	return ErrMetricsNotPushed
}
