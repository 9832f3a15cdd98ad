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
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/telcom-noc/alarm-escalation-service/conf"
	"github.com/telcom-noc/alarm-escalation-service/producer"
	"github.com/telcom-noc/alarm-escalation-service/types"
)

// SplitMessage splits text into consecutive chunks of at most limit
// characters. The last chunk is dropped when it contains only white space.
func SplitMessage(text string, limit int) []string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
			remainder := string(runes[start:end])
			if strings.TrimSpace(remainder) != "" {
				chunks = append(chunks, remainder)
			}
			break
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// Dispatcher delivers digests through given sender
type Dispatcher struct {
	sender           producer.Sender
	maxMessageLength int
	testRecipient    types.ChatID
	testMode         bool
}

// NewDispatcher creates dispatcher according to Telegram configuration.
// In test mode every message is delivered to the test chat. Test mode with
// test chat that is not a valid chat identifier is refused, so messages
// never leak to real recipients.
func NewDispatcher(sender producer.Sender, configuration conf.TelegramConfiguration) (*Dispatcher, error) {
	testRecipient, valid := configuration.TestRecipient()
	if configuration.TestMode {
		if !valid {
			log.Error().Str("test chat", configuration.TestChatID).Msg("Test mode enabled without valid test chat")
			return nil, conf.ErrInvalidTestChatID
		}
		log.Warn().Int64(chatIDAttribute, int64(testRecipient)).Msg("Test mode enabled, all messages are redirected")
	}
	return &Dispatcher{
		sender:           sender,
		maxMessageLength: configuration.MaxMessageLength,
		testRecipient:    testRecipient,
		testMode:         configuration.TestMode,
	}, nil
}

// Target returns chat message for given recipient is actually sent to
func (d *Dispatcher) Target(recipient types.ChatID) types.ChatID {
	if d.testMode {
		return d.testRecipient
	}
	return recipient
}

// Dispatch sends all chunks of text in order. Failed chunks are logged and
// counted, remaining chunks are still sent.
func (d *Dispatcher) Dispatch(ctx context.Context, recipient types.ChatID, text string) types.DispatchResult {
	target := d.Target(recipient)
	chunks := SplitMessage(text, d.maxMessageLength)
	result := types.DispatchResult{Target: target}

	for i, chunk := range chunks {
		result.Attempted++
		err := d.sender.Send(ctx, target, chunk)
		if err != nil {
			result.Failed++
			DeliveryFailures.Inc()
			failure := &DeliveryFailure{Target: target, Chunk: i + 1, Chunks: len(chunks), Err: err}
			log.Error().Err(failure).Int64(recipientAttribute, int64(recipient)).Msg(deliveryFailedMessage)
			continue
		}
		MessagesSent.Inc()
	}

	log.Debug().
		Int64(recipientAttribute, int64(recipient)).
		Int64(chatIDAttribute, int64(target)).
		Int("chunks", result.Attempted).
		Int("failed", result.Failed).
		Msg("Digest dispatched")

	return result
}
