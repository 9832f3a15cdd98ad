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

package kafka

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/RedHatInsights/insights-operator-utils/tests/helpers"
	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/telcom-noc/alarm-escalation-service/conf"
	"github.com/telcom-noc/alarm-escalation-service/producer"
	"github.com/telcom-noc/alarm-escalation-service/types"
)

var (
	brokerCfg = conf.KafkaConfiguration{
		Addresses: "localhost:9092",
		Topic:     "noc_alarm_escalations",
		Timeout:   30 * time.Second,
		Enabled:   true,
	}
)

var _ producer.Producer = &Producer{}

func init() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
}

func escalationEvent(t *testing.T) types.ProducerMessage {
	msgBytes, err := json.Marshal(types.EscalationEvent{
		RunID:          "run",
		SiteID:         "S1",
		Role:           types.ClusterEngineer.String(),
		Recipient:      42,
		Alarms:         1,
		ChunksSent:     1,
		Timestamp:      time.Now().UTC().Format(time.RFC3339Nano),
		SiteDownAlert:  true,
		DeliveryTarget: 42,
	})
	helpers.FailOnError(t, err)
	return msgBytes
}

// Test Producer creation with a non accessible Kafka broker
func TestNewProducerBadBroker(t *testing.T) {
	_, err := New(&conf.ConfigStruct{
		Kafka: conf.KafkaConfiguration{
			Addresses: "",
			Topic:     "whatever",
			Timeout:   time.Second,
			Enabled:   true,
		}})
	assert.Error(t, err)
}

func TestNewProducerMissingTopic(t *testing.T) {
	_, err := New(&conf.ConfigStruct{
		Kafka: conf.KafkaConfiguration{
			Addresses: "localhost:9092",
			Enabled:   true,
		}})
	assert.ErrorIs(t, err, ErrMissingTopic)
}

func TestEventKey(t *testing.T) {
	assert.Equal(t, "S1", EventKey(escalationEvent(t)))
	assert.Equal(t, "", EventKey(types.ProducerMessage("not a json")))
	assert.Equal(t, "", EventKey(types.ProducerMessage("{}")))
}

// TestProducerClose makes sure it's possible to close the connection
func TestProducerClose(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	prod := Producer{
		Configuration: brokerCfg,
		Producer:      mockProducer,
	}

	err := prod.Close()
	assert.NoError(t, err, "failed to close Kafka producer")
}

func TestProducerSendEscalationEvent(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var event types.EscalationEvent
		if err := json.Unmarshal(val, &event); err != nil {
			return err
		}
		if event.SiteID != "S1" {
			return errors.New("unexpected site in escalation event")
		}
		return nil
	})

	kafkaProducer := Producer{
		Configuration: brokerCfg,
		Producer:      mockProducer,
	}

	_, _, err := kafkaProducer.ProduceMessage(escalationEvent(t))
	assert.NoError(t, err, "Couldn't produce message with given broker configuration")
	helpers.FailOnError(t, kafkaProducer.Close())
}

func TestProducerSendEscalationEventFailure(t *testing.T) {
	brokerError := errors.New("broker is gone")

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageAndFail(brokerError)

	kafkaProducer := Producer{
		Configuration: brokerCfg,
		Producer:      mockProducer,
	}

	_, _, err := kafkaProducer.ProduceMessage(escalationEvent(t))
	assert.ErrorIs(t, err, brokerError)
	helpers.FailOnError(t, kafkaProducer.Close())
}

// TestProducerDisabledOnTheFly checks that nothing is sent when the broker
// is disabled in configuration
func TestProducerDisabledOnTheFly(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)

	cfg := brokerCfg
	cfg.Enabled = false
	kafkaProducer := Producer{
		Configuration: cfg,
		Producer:      mockProducer,
	}

	_, _, err := kafkaProducer.ProduceMessage(escalationEvent(t))
	assert.NoError(t, err)
	helpers.FailOnError(t, kafkaProducer.Close())
}

// TestSaramaConfigFromBrokerConfigDefaults checks timeouts and delivery
// reports in configuration without any security protocol
func TestSaramaConfigFromBrokerConfigDefaults(t *testing.T) {
	saramaConfig, err := SaramaConfigFromBrokerConfig(&brokerCfg)
	assert.Nil(t, err)
	assert.False(t, saramaConfig.Net.TLS.Enable)
	assert.False(t, saramaConfig.Net.SASL.Enable)
	assert.True(t, saramaConfig.Producer.Return.Successes)
	assert.Equal(t, sarama.WaitForAll, saramaConfig.Producer.RequiredAcks)
	assert.Equal(t, "alarm-escalation-service", saramaConfig.ClientID)
	assert.Equal(t, brokerCfg.Timeout, saramaConfig.Net.DialTimeout)
	assert.Equal(t, brokerCfg.Timeout, saramaConfig.Producer.Timeout)
}

// TestSaramaConfigFromBrokerWithSASLEnabledNoSASLMechanism function checks
// that the Sarama config returned for a broker configuration with SASL
// enabled contains the expected fields
func TestSaramaConfigFromBrokerWithSASLEnabledNoSASLMechanism(t *testing.T) {
	var brokerConfiguration = conf.KafkaConfiguration{
		Addresses:        "localhost:9092",
		Topic:            "noc_alarm_escalations",
		Enabled:          true,
		SecurityProtocol: "SASL_",
		SaslUsername:     "sasl_user",
		SaslPassword:     "sasl_password",
		SaslMechanism:    "",
	}

	saramaConfig, err := SaramaConfigFromBrokerConfig(&brokerConfiguration)
	assert.Nil(t, err)
	assert.True(t, saramaConfig.Net.SASL.Enable)
	assert.Equal(t, brokerConfiguration.SaslUsername, saramaConfig.Net.SASL.User)
	assert.Equal(t, brokerConfiguration.SaslPassword, saramaConfig.Net.SASL.Password)
	assert.Nil(t, saramaConfig.Net.SASL.SCRAMClientGeneratorFunc, "SCRAM client generator function should not be created with given config")
}

// TestSaramaConfigFromBrokerWithSASLEnabledSCRAMAuth function checks that
// the Sarama config returned for a broker configuration with SASL enabled
// using SCRAM authentication mechanism contains expected fields
func TestSaramaConfigFromBrokerWithSASLEnabledSCRAMAuth(t *testing.T) {
	var brokerConfiguration = conf.KafkaConfiguration{
		Addresses:        "localhost:9092",
		Topic:            "noc_alarm_escalations",
		Enabled:          true,
		SecurityProtocol: "SASL_SSL",
		SaslUsername:     "sasl_user",
		SaslPassword:     "sasl_password",
		SaslMechanism:    sarama.SASLTypeSCRAMSHA512,
	}

	saramaConfig, err := SaramaConfigFromBrokerConfig(&brokerConfiguration)
	assert.Nil(t, err)
	assert.True(t, saramaConfig.Net.TLS.Enable)
	assert.True(t, saramaConfig.Net.SASL.Enable)
	assert.Equal(t, brokerConfiguration.SaslUsername, saramaConfig.Net.SASL.User)
	assert.Equal(t, brokerConfiguration.SaslPassword, saramaConfig.Net.SASL.Password)
	assert.NotNil(t, saramaConfig.Net.SASL.SCRAMClientGeneratorFunc, "SCRAM client generator function should have been created with given config")

	client := saramaConfig.Net.SASL.SCRAMClientGeneratorFunc()
	assert.NoError(t, client.Begin("sasl_user", "sasl_password", ""))
	assert.False(t, client.Done())
}

// TestSaramaConfigFromBrokerWithSSLBadCertificate checks that error is
// returned when the certificate can not be loaded
func TestSaramaConfigFromBrokerWithSSLBadCertificate(t *testing.T) {
	var brokerConfiguration = conf.KafkaConfiguration{
		Addresses:        "localhost:9092",
		SecurityProtocol: "SSL",
		CertPath:         "missing-certificate.crt",
	}

	_, err := SaramaConfigFromBrokerConfig(&brokerConfiguration)
	assert.Error(t, err)
}
