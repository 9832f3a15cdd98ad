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
	"fmt"
	"strings"

	"github.com/telcom-noc/alarm-escalation-service/types"
)

// SchemaError is returned when required columns are missing in a tabular
// input. Nothing is written when this error occurs.
type SchemaError struct {
	Source  string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns in %s: %s", e.Source, strings.Join(e.Missing, ", "))
}

// InputError represents an input file that can not be found, opened or
// parsed
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("unable to read input file %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// ParseWarning describes a timestamp that could not be parsed. The field
// is set to null and processing continues.
type ParseWarning struct {
	Row    int
	Column string
	Value  string
}

func (w ParseWarning) Error() string {
	return fmt.Sprintf("unparseable %s value %q on row %d", w.Column, w.Value, w.Row)
}

// DeliveryFailure represents one message chunk that was not accepted by the
// messaging transport
type DeliveryFailure struct {
	Target types.ChatID
	Chunk  int
	Chunks int
	Err    error
}

func (e *DeliveryFailure) Error() string {
	return fmt.Sprintf("delivery of chunk %d/%d to %d failed: %v", e.Chunk, e.Chunks, e.Target, e.Err)
}

func (e *DeliveryFailure) Unwrap() error {
	return e.Err
}

// StorageError is related to any storage error
type StorageError struct {
	Operation string
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed: %v", e.Operation, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// KafkaBrokerError represent an error related to Kafka initialization
type KafkaBrokerError struct {
	Err error
}

func (e *KafkaBrokerError) Error() string {
	return fmt.Sprintf("KafkaBrokerError: %v", e.Err)
}

func (e *KafkaBrokerError) Unwrap() error {
	return e.Err
}

// SiteFilterError is returned when site filter expression can not be
// evaluated
type SiteFilterError struct {
	Expression string
	Err        error
}

func (e *SiteFilterError) Error() string {
	return fmt.Sprintf("site filter %q can not be evaluated: %v", e.Expression, e.Err)
}

func (e *SiteFilterError) Unwrap() error {
	return e.Err
}
