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

// Package disabled contains an implementation of Producer interface that
// drops all messages. It is used when the Kafka broker is not configured.
package disabled

import (
	"github.com/rs/zerolog/log"

	"github.com/telcom-noc/alarm-escalation-service/types"
)

// Producer is an implementation of Producer interface where no message is
// sent. Dropped messages are only counted.
type Producer struct {
	Dropped int
}

// ProduceMessage doesn't publish any message. Offset -1 marks that message
// was not stored anywhere.
func (producer *Producer) ProduceMessage(msg types.ProducerMessage) (int32, int64, error) {
	producer.Dropped++
	log.Debug().Int("size", len(msg)).Msg("Escalation event dropped, broker is disabled")
	return 0, -1, nil
}

// Close reports number of dropped events and returns nil
func (producer *Producer) Close() error {
	if producer.Dropped > 0 {
		log.Info().Int("events", producer.Dropped).Msg("Escalation events not produced, broker is disabled")
	}
	return nil
}
