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

package mocks

import (
	context "context"

	mock "github.com/stretchr/testify/mock"
	types "github.com/telcom-noc/alarm-escalation-service/types"
)

// Sender is a mock type for the Sender type
type Sender struct {
	mock.Mock
}

// Send provides a mock function with given fields: ctx, chatID, text
func (_m *Sender) Send(ctx context.Context, chatID types.ChatID, text string) error {
	ret := _m.Called(ctx, chatID, text)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, types.ChatID, string) error); ok {
		r0 = rf(ctx, chatID, text)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// Close provides a mock function with given fields:
func (_m *Sender) Close() error {
	ret := _m.Called()

	var r0 error
	if rf, ok := ret.Get(0).(func() error); ok {
		r0 = rf()
	} else {
		r0 = ret.Error(0)
	}

	return r0
}
