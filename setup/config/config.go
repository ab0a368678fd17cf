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

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// Version is the current version of the config format.
// This will change whenever we make breaking changes to the config format.
const Version = 1

// Config contains all the config used by the event tooling. It is
// read from a YAML file.
type Config struct {
	// The version of the configuration file.
	// If the version in a file doesn't match the current version then
	// loading will fail.
	Version int `yaml:"version"`

	// The configuration to use for logging. Each hook receives the log
	// entries at or above its level. If no hooks are configured then
	// everything at info and above goes to stderr.
	Logging []LogrusHook `yaml:"logging"`

	// How batches of events are decoded.
	EventBatch EventBatch `yaml:"event_batch"`

	// Metrics configuration
	Metrics Metrics `yaml:"metrics"`
}

// LogrusHook represents a single logrus hook. At this point, only parsing and
// verification of the proper values for type and level are done.
// Type and level are required, Params depends on the type.
type LogrusHook struct {
	// The type of hook, currently "std", "file" or "syslog".
	Type string `yaml:"type"`

	// The level of the logs to produce. Will output only this level and above.
	Level string `yaml:"level"`

	// The parameters for this hook.
	Params map[string]interface{} `yaml:"params"`
}

// The configuration to use for Prometheus metrics
type Metrics struct {
	// Whether or not the metrics are collected and reported
	Enabled bool `yaml:"enabled"`
}

func (c *Metrics) Defaults(generate bool) {
	c.Enabled = generate
}

func (c *Metrics) Verify(configErrs *ConfigErrors) {
}

// Defaults fills in every option with its default value. If generate is
// true then the defaults are suitable for writing out an example config.
func (c *Config) Defaults(generate bool) {
	c.Version = Version
	c.EventBatch.Defaults(generate)
	c.Metrics.Defaults(generate)
	if generate {
		c.Logging = []LogrusHook{
			{
				Type:  "std",
				Level: "info",
			},
		}
	}
}

// Verify checks that the configuration is complete and consistent,
// adding a message to configErrs for every problem found.
func (c *Config) Verify(configErrs *ConfigErrors) {
	if c.Version != Version {
		configErrs.Add(fmt.Sprintf("unknown config version %d, expected %d", c.Version, Version))
	}
	for i, hook := range c.Logging {
		hook.Verify(configErrs, fmt.Sprintf("logging[%d]", i))
	}
	c.EventBatch.Verify(configErrs)
	c.Metrics.Verify(configErrs)
}

func (h *LogrusHook) Verify(configErrs *ConfigErrors, key string) {
	if _, err := logrus.ParseLevel(h.Level); err != nil {
		configErrs.Add(fmt.Sprintf("invalid logging level %q for %s", h.Level, key))
	}
	switch h.Type {
	case "std":
	case "file":
		checkStringParam(configErrs, key, h.Params, "path")
	case "syslog":
		checkStringParam(configErrs, key, h.Params, "address")
		checkStringParam(configErrs, key, h.Params, "protocol")
	default:
		configErrs.Add(fmt.Sprintf("unknown logging hook type %q for %s", h.Type, key))
	}
}

// Load reads and verifies a YAML config file. Options missing from the
// file take their default values.
func Load(configPath string) (*Config, error) {
	configData, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	return loadConfig(configData)
}

func loadConfig(configData []byte) (*Config, error) {
	var c Config
	c.Defaults(false)
	if err := yaml.Unmarshal(configData, &c); err != nil {
		return nil, err
	}

	var configErrs ConfigErrors
	c.Verify(&configErrs)
	if len(configErrs) > 0 {
		return nil, configErrs
	}
	return &c, nil
}

// ConfigErrors stores problems encountered when parsing a config file.
// It implements the error interface.
type ConfigErrors []string

// Add appends an error to the list of errors in this configErrors.
// It is a wrapper to the builtin append and hides pointers from
// the client code.
// This method is safe to use with an uninitialized configErrors because
// if it is nil, it will be properly allocated.
func (errs *ConfigErrors) Add(str string) {
	*errs = append(*errs, str)
}

// Error returns a string detailing how many errors were contained within a
// configErrors type.
func (errs ConfigErrors) Error() string {
	if len(errs) == 1 {
		return errs[0]
	}
	return fmt.Sprintf(
		"%s (and %d other problems)", errs[0], len(errs)-1,
	)
}

// checkPositive verifies that a value is greater than zero.
// If not, adds an error to the list.
func checkPositive(configErrs *ConfigErrors, key string, value int64) {
	if value <= 0 {
		configErrs.Add(fmt.Sprintf("invalid value for config key %q: %d", key, value))
	}
}

func checkStringParam(configErrs *ConfigErrors, key string, params map[string]interface{}, name string) {
	value, ok := params[name]
	if !ok {
		configErrs.Add(fmt.Sprintf("expecting a parameter %q for %s", name, key))
		return
	}
	if s, ok := value.(string); !ok || strings.TrimSpace(s) == "" {
		configErrs.Add(fmt.Sprintf("parameter %q for %s should be a non-empty string", name, key))
	}
}
