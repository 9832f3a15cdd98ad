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

package utils

import (
	"strings"
)

// placeholder used instead of secrets in logged messages
const redacted = "[REDACTED]"

// SetHTTPPrefix adds HTTP prefix if it is not already present in the given string
func SetHTTPPrefix(url string) string {
	if !strings.HasPrefix(url, "http") {
		// if no protocol is specified in given URL, assume it is not
		// needed to use https
		url = "http://" + url
	}
	return url
}

// FieldLookup returns value of named field and flag whether the value is
// present at all.
type FieldLookup func(name string) (string, bool)

// FirstAvailable returns value of the first candidate field that is present
// and not blank. The default value is returned when no candidate matches.
func FirstAvailable(lookup FieldLookup, candidates []string, defaultValue string) string {
	for _, candidate := range candidates {
		value, found := lookup(candidate)
		if found && strings.TrimSpace(value) != "" {
			return value
		}
	}
	return defaultValue
}

// RedactSecret replaces all occurrences of secret in given text so it can
// be logged safely.
func RedactSecret(text, secret string) string {
	if secret == "" {
		return text
	}
	return strings.ReplaceAll(text, secret, redacted)
}
