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

package conf

// This source file contains definition of data type named ConfigStruct that
// represents configuration of alarm escalation service. This source file
// also contains function named LoadConfiguration that can be used to load
// configuration from provided configuration file and/or from environment
// variables. Additionally several specific functions named
// GetStorageConfiguration, GetLoggingConfiguration, GetFilesConfiguration,
// GetTelegramConfiguration, GetKafkaBrokerConfiguration and
// GetMetricsConfiguration are to be used to return specific configuration
// options.

// Default name of configuration file is config.toml
// It can be changed via environment variable ALARM_ESCALATION_SERVICE_CONFIG_FILE

// An example of configuration file that can be used in devel environment:
//
// [logging]
// debug = true
// log_level = "info"
//
// [log_file]
// path = "logs/alarm-escalation-service.log"
// max_size = 100
//
// [files]
// raw_input = "data/raw"
// raw_header_row = 1
// normalized_output = "data/processed/cleaned_alarms.csv"
// mapping_file = "data/mapping/site_escalation_mapping.xlsx"
//
// [telegram]
// bot_token = ""
// api_url = "https://api.telegram.org"
// parse_mode = "HTML"
// timeout = "10s"
// max_message_length = 4000
// test_mode = true
// test_chat_id = "123456789"
//
// [storage]
// enabled = true
// db_driver = "sqlite3"
// sqlite_datasource = "alarms.db"
// collection = "AlarmLogs"
//
// Environment variables that can be used to override configuration file
// settings have the ALARM_ESCALATION_SERVICE_ prefix, sections are separated
// by double underscore, e.g. ALARM_ESCALATION_SERVICE_TELEGRAM__BOT_TOKEN

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/RedHatInsights/insights-operator-utils/logger"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/telcom-noc/alarm-escalation-service/types"
)

// Configuration-related constants
const (
	// ConfigFileEnvVariableName is name of environment variable that can
	// contain name of configuration file
	ConfigFileEnvVariableName = "ALARM_ESCALATION_SERVICE_CONFIG_FILE"

	// DefaultConfigFileName is name of configuration file used when the
	// environment variable is not set
	DefaultConfigFileName = "config"

	envPrefix = "ALARM_ESCALATION_SERVICE"
)

// Defaults used when the value is not set in configuration
const (
	DefaultMaxMessageLength = 4000
	DefaultTelegramTimeout  = 10 * time.Second
	DefaultTelegramAPIURL   = "https://api.telegram.org"
	DefaultParseMode        = "HTML"
	DefaultRawHeaderRow     = 1
	DefaultCollection       = "AlarmLogs"
	DefaultSiteFilter       = "alarms >= 1"
)

// ConfigStruct is a structure holding the whole alarm escalation service
// configuration
type ConfigStruct struct {
	Logging      logger.LoggingConfiguration       `mapstructure:"logging" toml:"logging"`
	LogFile      LogFileConfiguration              `mapstructure:"log_file" toml:"log_file"`
	CloudWatch   logger.CloudWatchConfiguration    `mapstructure:"cloudwatch" toml:"cloudwatch"`
	Sentry       logger.SentryLoggingConfiguration `mapstructure:"sentry" toml:"sentry"`
	KafkaZerolog logger.KafkaZerologConfiguration  `mapstructure:"kafka_zerolog" toml:"kafka_zerolog"`
	Files      FilesConfiguration      `mapstructure:"files" toml:"files"`
	Storage    StorageConfiguration    `mapstructure:"storage" toml:"storage"`
	Telegram   TelegramConfiguration   `mapstructure:"telegram" toml:"telegram"`
	Kafka      KafkaConfiguration      `mapstructure:"kafka_broker" toml:"kafka_broker"`
	Processing ProcessingConfiguration `mapstructure:"processing" toml:"processing"`
	Escalation EscalationConfiguration `mapstructure:"escalation" toml:"escalation"`
	Metrics    MetricsConfiguration    `mapstructure:"metrics" toml:"metrics"`
	Cleaner    CleanerConfiguration    `mapstructure:"cleaner" toml:"cleaner"`
}

// LogFileConfiguration represents configuration of rotated log file that
// is written in addition to the standard output
type LogFileConfiguration struct {
	Path       string `mapstructure:"path"        toml:"path"`
	MaxSize    int    `mapstructure:"max_size"    toml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" toml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"     toml:"max_age"`
	Compress   bool   `mapstructure:"compress"    toml:"compress"`
}

// FilesConfiguration represents location of input and output files
type FilesConfiguration struct {
	// RawInput is either path to raw alarm export or to a directory where
	// exports are downloaded to (the newest one is used then)
	RawInput         string `mapstructure:"raw_input" toml:"raw_input"`
	RawHeaderRow     int    `mapstructure:"raw_header_row" toml:"raw_header_row"`
	NormalizedOutput string `mapstructure:"normalized_output" toml:"normalized_output"`
	MappingFile      string `mapstructure:"mapping_file" toml:"mapping_file"`
}

// StorageConfiguration represents configuration of the data storage where
// normalized alarms are persisted
type StorageConfiguration struct {
	Enabled          bool   `mapstructure:"enabled"           toml:"enabled"`
	Driver           string `mapstructure:"db_driver"         toml:"db_driver"`
	SQLiteDataSource string `mapstructure:"sqlite_datasource" toml:"sqlite_datasource"`
	PGUsername       string `mapstructure:"pg_username"       toml:"pg_username"`
	PGPassword       string `mapstructure:"pg_password"       toml:"pg_password"`
	PGHost           string `mapstructure:"pg_host"           toml:"pg_host"`
	PGPort           int    `mapstructure:"pg_port"           toml:"pg_port"`
	PGDBName         string `mapstructure:"pg_db_name"        toml:"pg_db_name"`
	PGParams         string `mapstructure:"pg_params"         toml:"pg_params"`
	Collection       string `mapstructure:"collection"        toml:"collection"`
	LogSQLQueries    bool   `mapstructure:"log_sql_queries"   toml:"log_sql_queries"`
}

// TelegramConfiguration represents configuration of the messaging
// transport
type TelegramConfiguration struct {
	BotToken         string        `mapstructure:"bot_token"          toml:"bot_token"`
	APIURL           string        `mapstructure:"api_url"            toml:"api_url"`
	ParseMode        string        `mapstructure:"parse_mode"         toml:"parse_mode"`
	Timeout          time.Duration `mapstructure:"timeout"            toml:"timeout"`
	MaxMessageLength int           `mapstructure:"max_message_length" toml:"max_message_length"`

	// TestMode redirects all messages to TestChatID
	TestMode   bool   `mapstructure:"test_mode"    toml:"test_mode"`
	TestChatID string `mapstructure:"test_chat_id" toml:"test_chat_id"`
}

// KafkaConfiguration represents configuration of Kafka brokers and topics
// escalation events are produced to
type KafkaConfiguration struct {
	Enabled          bool          `mapstructure:"enabled"           toml:"enabled"`
	Addresses        string        `mapstructure:"addresses"         toml:"addresses"`
	SecurityProtocol string        `mapstructure:"security_protocol" toml:"security_protocol"`
	CertPath         string        `mapstructure:"cert_path"         toml:"cert_path"`
	SaslMechanism    string        `mapstructure:"sasl_mechanism"    toml:"sasl_mechanism"`
	SaslUsername     string        `mapstructure:"sasl_username"     toml:"sasl_username"`
	SaslPassword     string        `mapstructure:"sasl_password"     toml:"sasl_password"`
	Topic            string        `mapstructure:"topic"             toml:"topic"`
	Timeout          time.Duration `mapstructure:"timeout"           toml:"timeout"`
}

// ProcessingConfiguration represents configuration for processing subsystem
type ProcessingConfiguration struct {
	FilterAllowedClusters bool     `mapstructure:"filter_allowed_clusters" toml:"filter_allowed_clusters"`
	AllowedClusters       []string `mapstructure:"allowed_clusters"        toml:"allowed_clusters"`
	FilterBlockedClusters bool     `mapstructure:"filter_blocked_clusters" toml:"filter_blocked_clusters"`
	BlockedClusters       []string `mapstructure:"blocked_clusters"        toml:"blocked_clusters"`
}

// EscalationConfiguration represents configuration of the escalation
// grouper
type EscalationConfiguration struct {
	// SiteFilter is an expression evaluated for every site; variables
	// "alarms" and "outages" are available
	SiteFilter string `mapstructure:"site_filter" toml:"site_filter"`
}

// CleanerConfiguration represents configuration for the storage cleaner
type CleanerConfiguration struct {
	// MaxAge is max age of stored alarms to be cleaned
	MaxAge string `mapstructure:"max_age" toml:"max_age"`
}

// MetricsConfiguration holds metrics related configuration
type MetricsConfiguration struct {
	Job              string        `mapstructure:"job_name" toml:"job_name"`
	Namespace        string        `mapstructure:"namespace" toml:"namespace"`
	Subsystem        string        `mapstructure:"subsystem" toml:"subsystem"`
	GatewayURL       string        `mapstructure:"gateway_url" toml:"gateway_url"`
	GatewayAuthToken string        `mapstructure:"gateway_auth_token" toml:"gateway_auth_token"`
	Retries          int           `mapstructure:"retries" toml:"retries"`
	RetryAfter       time.Duration `mapstructure:"retry_after" toml:"retry_after"`
}

// LoadConfiguration loads configuration from defaultConfigFile, file set in
// configFileEnvVariableName or from env
func LoadConfiguration(configFileEnvVariableName, defaultConfigFile string) (ConfigStruct, error) {
	var config ConfigStruct

	// messages are redirected to test chat unless test mode is switched
	// off explicitly
	config.Telegram.TestMode = true

	// env. variable holding name of configuration file
	configFile, specified := os.LookupEnv(configFileEnvVariableName)
	if specified {
		// we need to separate the directory name and filename without
		// extension
		directory, basename := filepath.Split(configFile)
		file := strings.TrimSuffix(basename, filepath.Ext(basename))
		// parse the configuration
		viper.SetConfigName(file)
		viper.AddConfigPath(directory)
	} else {
		log.Info().Str("filename", defaultConfigFile).Msg("Parsing configuration file")
		// parse the configuration
		viper.SetConfigName(defaultConfigFile)
		viper.AddConfigPath(".")
	}

	// try to read the whole configuration
	err := viper.ReadInConfig()
	if _, isNotFoundError := err.(viper.ConfigFileNotFoundError); !specified && isNotFoundError {
		// If config file is not present (which might be correct in
		// some environment) we need to read configuration from
		// environment variables. The problem is that Viper is not smart
		// enough to understand the structure of config by itself, so
		// we need to read fake config file
		fakeTomlConfigWriter := new(bytes.Buffer)

		err := toml.NewEncoder(fakeTomlConfigWriter).Encode(config)
		if err != nil {
			return config, err
		}

		fakeTomlConfig := fakeTomlConfigWriter.String()

		viper.SetConfigType("toml")

		err = viper.ReadConfig(strings.NewReader(fakeTomlConfig))
		if err != nil {
			return config, err
		}
	} else if err != nil {
		// error is processed on caller side
		return config, fmt.Errorf("fatal error config file: %s", err)
	}

	// override config from env if there's variable in env
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "__"))

	err = viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	applyDefaults(&config)

	// everything's should be ok
	return config, nil
}

// applyDefaults fills in values that are mandatory for the pipeline but
// were left out of configuration
func applyDefaults(config *ConfigStruct) {
	if config.Telegram.MaxMessageLength == 0 {
		config.Telegram.MaxMessageLength = DefaultMaxMessageLength
	}
	if config.Telegram.Timeout == 0 {
		config.Telegram.Timeout = DefaultTelegramTimeout
	}
	if config.Telegram.APIURL == "" {
		config.Telegram.APIURL = DefaultTelegramAPIURL
	}
	if config.Telegram.ParseMode == "" {
		config.Telegram.ParseMode = DefaultParseMode
	}
	if config.Files.RawHeaderRow == 0 {
		config.Files.RawHeaderRow = DefaultRawHeaderRow
	}
	if config.Storage.Collection == "" {
		config.Storage.Collection = DefaultCollection
	}
	if strings.TrimSpace(config.Escalation.SiteFilter) == "" {
		config.Escalation.SiteFilter = DefaultSiteFilter
	}
}

// Configuration errors
var (
	ErrMissingBotToken        = errors.New("telegram bot token is not set")
	ErrInvalidTestChatID      = errors.New("test mode is enabled, but test chat ID is not a valid chat identifier")
	ErrInvalidMessageLength   = errors.New("max message length must be a positive number")
	ErrInvalidTelegramTimeout = errors.New("telegram timeout must be a positive duration")
)

// ValidateConfiguration checks that all options needed to deliver messages
// are set. It is called on startup before any file is touched.
func ValidateConfiguration(config *ConfigStruct) error {
	telegramConfig := GetTelegramConfiguration(config)

	if strings.TrimSpace(telegramConfig.BotToken) == "" {
		return ErrMissingBotToken
	}

	if telegramConfig.TestMode {
		if _, ok := types.ParseChatID(telegramConfig.TestChatID); !ok {
			return ErrInvalidTestChatID
		}
	}

	if telegramConfig.MaxMessageLength <= 0 {
		return ErrInvalidMessageLength
	}

	if telegramConfig.Timeout <= 0 {
		return ErrInvalidTelegramTimeout
	}

	return nil
}

// TestRecipient returns chat all messages are redirected to in test mode.
// The second return value is false when test mode is disabled.
func (c TelegramConfiguration) TestRecipient() (types.ChatID, bool) {
	if !c.TestMode {
		return 0, false
	}
	return types.ParseChatID(c.TestChatID)
}

// GetStorageConfiguration returns storage configuration
func GetStorageConfiguration(config *ConfigStruct) StorageConfiguration {
	return config.Storage
}

// GetLoggingConfiguration returns logging configuration
func GetLoggingConfiguration(config *ConfigStruct) logger.LoggingConfiguration {
	return config.Logging
}

// GetLogFileConfiguration returns configuration of rotated log file
func GetLogFileConfiguration(config *ConfigStruct) LogFileConfiguration {
	return config.LogFile
}

// GetCloudWatchConfiguration returns cloudwatch logging configuration
func GetCloudWatchConfiguration(config *ConfigStruct) logger.CloudWatchConfiguration {
	return config.CloudWatch
}

// GetSentryLoggingConfiguration returns the sentry log configuration
func GetSentryLoggingConfiguration(config *ConfigStruct) logger.SentryLoggingConfiguration {
	return config.Sentry
}

// GetKafkaZerologConfiguration returns the kafkazero log configuration
func GetKafkaZerologConfiguration(config *ConfigStruct) logger.KafkaZerologConfiguration {
	return config.KafkaZerolog
}

// GetFilesConfiguration returns configuration of input and output files
func GetFilesConfiguration(config *ConfigStruct) FilesConfiguration {
	return config.Files
}

// GetTelegramConfiguration returns messaging transport configuration
func GetTelegramConfiguration(config *ConfigStruct) TelegramConfiguration {
	return config.Telegram
}

// GetKafkaBrokerConfiguration returns kafka broker configuration
func GetKafkaBrokerConfiguration(config *ConfigStruct) KafkaConfiguration {
	return config.Kafka
}

// GetProcessingConfiguration returns processing configuration
func GetProcessingConfiguration(config *ConfigStruct) ProcessingConfiguration {
	return config.Processing
}

// GetEscalationConfiguration returns escalation configuration
func GetEscalationConfiguration(config *ConfigStruct) EscalationConfiguration {
	return config.Escalation
}

// GetMetricsConfiguration returns metrics configuration
func GetMetricsConfiguration(config *ConfigStruct) MetricsConfiguration {
	return config.Metrics
}

// GetCleanerConfiguration returns cleaner configuration
func GetCleanerConfiguration(config *ConfigStruct) CleanerConfiguration {
	return config.Cleaner
}
