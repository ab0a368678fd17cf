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

// Package eventbatch decodes batches of events, such as the account data
// or ephemeral sections of a sync response, and applies a skip-and-log
// policy to the events that can't be decoded.
package eventbatch

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/matrix-org/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/matrix-org/mxevents/events"
	"github.com/matrix-org/mxevents/setup/config"
)

const (
	// The event was decoded into a typed event
	MetricsOutcomeOK = "ok"
	// The event type isn't in the catalog, the event was kept as-is
	MetricsOutcomeUnrecognised = "unrecognised"
	// The event type was recognised but the content was invalid
	MetricsOutcomeInvalidContent = "invalid_content"
	// The input wasn't an event at all
	MetricsOutcomeMalformed = "malformed"
)

// Processor decodes batches of events with a catalog. It is safe for
// concurrent use.
type Processor struct {
	cfg      *config.EventBatch
	catalog  *events.Catalog
	outcomes *prometheus.CounterVec
}

// NewProcessor creates a processor. If reg is not nil then the outcome
// counter is registered with it; registering twice with the same
// registerer shares the existing counter.
func NewProcessor(cfg *config.EventBatch, catalog *events.Catalog, reg prometheus.Registerer) (*Processor, error) {
	outcomes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mxevents",
			Subsystem: "eventbatch",
			Name:      "events_total",
			Help:      "Number of decoded events with labels for their outcome",
		},
		[]string{"outcome"},
	)
	if reg != nil {
		if err := reg.Register(outcomes); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return nil, err
			}
			existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				return nil, err
			}
			outcomes = existing
		}
	}
	return &Processor{
		cfg:      cfg,
		catalog:  catalog,
		outcomes: outcomes,
	}, nil
}

// Process decodes every event in raws, in parallel up to the configured
// number of workers. The results are in input order. An error is only
// returned if ctx is cancelled before every event has been decoded.
func (p *Processor) Process(ctx context.Context, raws []json.RawMessage) ([]events.Result, error) {
	results := make([]events.Result, len(raws))

	workers := p.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range raws {
		i := i
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.catalog.Deserialize(raws[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, res := range results {
		p.outcomes.WithLabelValues(Outcome(res)).Inc()
	}
	return results, nil
}

// Outcome classifies a result with one of the MetricsOutcome constants.
// A Result with neither an event nor an error is malformed.
func Outcome(res events.Result) string {
	if res.Err == nil && res.Event == nil {
		return MetricsOutcomeMalformed
	}
	if res.Err == nil {
		if res.Unrecognized() {
			return MetricsOutcomeUnrecognised
		}
		return MetricsOutcomeOK
	}
	var contentErr *events.ContentError
	if errors.As(res.Err, &contentErr) {
		return MetricsOutcomeInvalidContent
	}
	return MetricsOutcomeMalformed
}

// Summary is what is left of a batch after skipping the failures.
type Summary struct {
	// Events holds the typed events, in input order.
	Events []events.Envelope
	// Unrecognised holds the events whose type isn't in the catalog.
	Unrecognised []*events.UnknownEvent
	// Skipped is the number of events which couldn't be decoded.
	Skipped int
}

// Summarise sorts the results of a batch and logs the events which are
// being skipped.
func (p *Processor) Summarise(ctx context.Context, results []events.Result) Summary {
	logger := util.GetLogger(ctx)
	var s Summary
	for i, res := range results {
		switch Outcome(res) {
		case MetricsOutcomeOK:
			s.Events = append(s.Events, res.Event)
		case MetricsOutcomeUnrecognised:
			unknown := res.Event.(*events.UnknownEvent)
			if p.cfg.LogUnrecognised {
				logger.WithFields(logrus.Fields{
					"index":      i,
					"event_type": unknown.EventType,
				}).Info("Keeping event with unrecognised type")
			}
			s.Unrecognised = append(s.Unrecognised, unknown)
		case MetricsOutcomeInvalidContent:
			s.Skipped++
			logger.WithError(res.Err).WithFields(logrus.Fields{
				"index":      i,
				"event_type": res.Type(),
			}).Warn("Skipping event with invalid content")
		default:
			s.Skipped++
			logger.WithError(res.Err).WithField("index", i).Warn("Skipping malformed event")
		}
	}
	return s
}

// Run processes and summarises a batch.
func (p *Processor) Run(ctx context.Context, raws []json.RawMessage) (Summary, error) {
	results, err := p.Process(ctx, raws)
	if err != nil {
		return Summary{}, err
	}
	return p.Summarise(ctx, results), nil
}
