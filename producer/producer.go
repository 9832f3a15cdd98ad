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

// Package producer contains interfaces of all outbound channels used by the
// alarm escalation service: the messaging transport used to deliver digests
// to people, and the broker escalation events are produced to.
package producer

import (
	"context"

	"github.com/telcom-noc/alarm-escalation-service/types"
)

// Producer represents any producer of escalation events
type Producer interface {
	ProduceMessage(msg types.ProducerMessage) (int32, int64, error)
	Close() error
}

// Sender represents any transport able to deliver one text message to one
// chat
type Sender interface {
	Send(ctx context.Context, chatID types.ChatID, text string) error
	Close() error
}
