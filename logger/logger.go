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
// Package logger initializes the global zerolog logger used by all other
// packages of the alarm escalation service. Console, CloudWatch, Sentry and
// Kafka outputs are set up by insights-operator-utils; this package adds
// rotated log file on top of them.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	utilslogger "github.com/RedHatInsights/insights-operator-utils/logger"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/telcom-noc/alarm-escalation-service/conf"
)

// default rotation settings used when configuration does not set them
const (
	defaultMaxSize    = 100 // megabytes
	defaultMaxBackups = 3
	defaultMaxAge     = 28 // days
)

// InitLogging sets up the global logger according to logging related
// sections of configuration
func InitLogging(config *conf.ConfigStruct) error {
	var additionalWriters []io.Writer

	logFileConfig := conf.GetLogFileConfiguration(config)
	if logFileConfig.Path != "" {
		fileWriter, err := NewRotatedFileWriter(logFileConfig)
		if err != nil {
			return err
		}
		additionalWriters = append(additionalWriters, fileWriter)
	}

	loggingConfig := conf.GetLoggingConfiguration(config)
	err := utilslogger.InitZerolog(
		loggingConfig,
		conf.GetCloudWatchConfiguration(config),
		conf.GetSentryLoggingConfiguration(config),
		conf.GetKafkaZerologConfiguration(config),
		additionalWriters...,
	)
	if err != nil {
		return err
	}

	log.Info().
		Str("configured", loggingConfig.LogLevel).
		Int("internal", int(zerolog.GlobalLevel())).
		Str("log file", logFileConfig.Path).
		Msg("Log level")
	return nil
}

// Close flushes and closes remote log outputs
func Close() {
	utilslogger.CloseZerolog()
}

// NewRotatedFileWriter returns writer into log file rotated by size
func NewRotatedFileWriter(config conf.LogFileConfiguration) (io.Writer, error) {
	dir := filepath.Dir(config.Path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("unable to create log directory %q: %w", dir, err)
		}
	}

	maxSize := config.MaxSize
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}
	maxBackups := config.MaxBackups
	if maxBackups <= 0 {
		maxBackups = defaultMaxBackups
	}
	maxAge := config.MaxAge
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}

	return &lumberjack.Logger{
		Filename:   config.Path,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
		Compress:   config.Compress,
	}, nil
}
