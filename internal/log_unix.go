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

//go:build !windows
// +build !windows

package internal

import (
	"fmt"
	"log/syslog"

	"github.com/sirupsen/logrus"
	lSyslog "github.com/sirupsen/logrus/hooks/syslog"

	"github.com/matrix-org/mxevents/setup/config"
)

func setupSyslogHook(hook config.LogrusHook, level logrus.Level, componentName string) error {
	protocol, _ := hook.Params["protocol"].(string)
	address, _ := hook.Params["address"].(string)
	syslogHook, err := lSyslog.NewSyslogHook(protocol, address, syslog.LOG_INFO, componentName)
	if err != nil {
		return fmt.Errorf("lSyslog.NewSyslogHook: %w", err)
	}
	logrus.AddHook(&logLevelHook{level, syslogHook})
	return nil
}
