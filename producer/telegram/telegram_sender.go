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

// Package telegram contains an implementation of Sender interface that
// delivers messages via Telegram Bot API.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/telcom-noc/alarm-escalation-service/conf"
	"github.com/telcom-noc/alarm-escalation-service/types"
	"github.com/telcom-noc/alarm-escalation-service/utils"
)

// maximum number of response body bytes kept in error messages
const maxResponseDetail = 1024

// StatusError is returned when Telegram API responds with any status other
// than 200 OK
type StatusError struct {
	StatusCode  int
	Description string
}

// Error returns a string representation of the StatusError
func (e *StatusError) Error() string {
	return fmt.Sprintf("telegram API responded with status %d: %s", e.StatusCode, e.Description)
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

// Sender is an implementation of Sender interface for Telegram Bot API
type Sender struct {
	Configuration conf.TelegramConfiguration
	client        *resty.Client
}

// New constructs new Telegram sender. Every message is sent exactly once,
// the client never retries.
func New(config *conf.TelegramConfiguration) (*Sender, error) {
	if config.BotToken == "" {
		return nil, errors.New("telegram bot token is not set")
	}

	client := resty.New().
		SetBaseURL(utils.SetHTTPPrefix(config.APIURL)).
		SetTimeout(config.Timeout).
		SetRetryCount(0)

	return &Sender{
		Configuration: *config,
		client:        client,
	}, nil
}

// Send delivers given text to given chat. Any response other than HTTP 200
// is reported as error.
func (sender *Sender) Send(ctx context.Context, chatID types.ChatID, text string) error {
	resp, err := sender.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"chat_id":    strconv.FormatInt(int64(chatID), 10),
			"text":       text,
			"parse_mode": sender.Configuration.ParseMode,
		}).
		Post("/bot" + sender.Configuration.BotToken + "/sendMessage")

	if err != nil {
		// transport errors contain full URL including the bot token
		sanitized := utils.RedactSecret(err.Error(), sender.Configuration.BotToken)
		return fmt.Errorf("HTTP request failed: %s", sanitized)
	}

	if resp.StatusCode() != http.StatusOK {
		return &StatusError{
			StatusCode:  resp.StatusCode(),
			Description: sender.describe(resp.Body()),
		}
	}

	log.Debug().Int64("chat", int64(chatID)).Int("length", len(text)).Msg("Message sent")
	return nil
}

// describe extracts the human readable reason from Telegram error response
func (sender *Sender) describe(body []byte) string {
	var response apiResponse
	if err := json.Unmarshal(body, &response); err == nil && response.Description != "" {
		return response.Description
	}

	if len(body) > maxResponseDetail {
		body = body[:maxResponseDetail]
	}
	return utils.RedactSecret(string(body), sender.Configuration.BotToken)
}

// Close closes Sender (in case of Telegram implementation, it does not do
// anything)
func (sender *Sender) Close() error {
	return nil
}
