// Copyright 2020 The Matrix.org Foundation C.I.C.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import "runtime"

type EventBatch struct {
	// The maximum number of events decoded in parallel. Defaults to
	// the number of CPUs.
	Workers int `yaml:"workers"`

	// Whether to log every event with a type that isn't recognised.
	// Unrecognised events are never dropped either way.
	LogUnrecognised bool `yaml:"log_unrecognised"`
}

func (c *EventBatch) Defaults(generate bool) {
	c.Workers = runtime.NumCPU()
	c.LogUnrecognised = false
	if generate {
		c.Workers = 4
		c.LogUnrecognised = true
	}
}

func (c *EventBatch) Verify(configErrs *ConfigErrors) {
	checkPositive(configErrs, "event_batch.workers", int64(c.Workers))
}
