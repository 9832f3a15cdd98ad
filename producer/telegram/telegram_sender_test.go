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

package telegram_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/RedHatInsights/insights-operator-utils/tests/helpers"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/telcom-noc/alarm-escalation-service/conf"
	"github.com/telcom-noc/alarm-escalation-service/producer"
	"github.com/telcom-noc/alarm-escalation-service/producer/telegram"
)

const botToken = "123456:secret-token"

var _ producer.Sender = &telegram.Sender{}

func init() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
}

func newSender(t *testing.T, url string) *telegram.Sender {
	sender, err := telegram.New(&conf.TelegramConfiguration{
		BotToken:  botToken,
		APIURL:    url,
		ParseMode: "HTML",
		Timeout:   time.Second,
	})
	helpers.FailOnError(t, err)
	return sender
}

func TestNewSenderWithoutToken(t *testing.T) {
	_, err := telegram.New(&conf.TelegramConfiguration{APIURL: "localhost"})
	assert.Error(t, err)
}

// TestSendMessage checks the request sent to Bot API
func TestSendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/bot"+botToken+"/sendMessage", r.URL.Path)

		helpers.FailOnError(t, r.ParseForm())
		assert.Equal(t, "-100123", r.PostForm.Get("chat_id"))
		assert.Equal(t, "<b>Site ID:</b> S1", r.PostForm.Get("text"))
		assert.Equal(t, "HTML", r.PostForm.Get("parse_mode"))

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer server.Close()

	sender := newSender(t, server.URL)
	err := sender.Send(context.Background(), -100123, "<b>Site ID:</b> S1")
	assert.NoError(t, err)
	assert.NoError(t, sender.Close())
}

// TestSendMessageBadStatus checks that non-200 response is an error
// containing the API description and that no retry is made
func TestSendMessageBadStatus(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))
	defer server.Close()

	sender := newSender(t, server.URL)
	err := sender.Send(context.Background(), 42, "text")

	var statusErr *telegram.StatusError
	assert.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, "Bad Request: chat not found", statusErr.Description)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

// TestSendMessageServerError checks plain text error bodies
func TestSendMessageServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	}))
	defer server.Close()

	sender := newSender(t, server.URL)
	err := sender.Send(context.Background(), 42, "text")
	assert.EqualError(t, err, "telegram API responded with status 502: upstream unavailable")
}

// TestSendMessageTransportErrorHidesToken checks that bot token never
// leaks into returned error
func TestSendMessageTransportErrorHidesToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	sender := newSender(t, url)
	err := sender.Send(context.Background(), 42, "text")
	assert.Error(t, err)
	assert.NotContains(t, err.Error(), botToken)
	assert.Contains(t, err.Error(), "[REDACTED]")
}

// TestSendMessageTimeout checks that the configured timeout bounds the call
func TestSendMessageTimeout(t *testing.T) {
	done := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()
	defer close(done)

	sender, err := telegram.New(&conf.TelegramConfiguration{
		BotToken:  botToken,
		APIURL:    server.URL,
		ParseMode: "HTML",
		Timeout:   100 * time.Millisecond,
	})
	helpers.FailOnError(t, err)

	start := time.Now()
	err = sender.Send(context.Background(), 42, "text")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}
