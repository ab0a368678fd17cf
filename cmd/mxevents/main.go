package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/matrix-org/util"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/sirupsen/logrus"

	"github.com/matrix-org/mxevents/events"
	"github.com/matrix-org/mxevents/internal"
	"github.com/matrix-org/mxevents/internal/eventbatch"
	"github.com/matrix-org/mxevents/setup/config"
)

// This is a utility for classifying a batch of events. It reads a JSON array
// of events, an object with an "events" array, or a whole /sync response,
// and prints one line per event with the outcome of decoding it.
//
// Usage: ./mxevents [-config mxevents.yaml] [-print] [file ...]
//   e.g. curl -s $HS/_matrix/client/v3/sync -H "$AUTH" | ./mxevents -print

func main() {
	internal.SetupStdLogging()
	if err := run(context.Background(), flag.NewFlagSet(os.Args[0], flag.ExitOnError), os.Args[1:], os.Stdin, os.Stdout); err != nil {
		logrus.WithError(err).Fatal("Failed to classify events")
	}
}

type options struct {
	cfg         *config.Config
	printEvents bool
	version     bool
	files       []string
}

func parseFlags(f *flag.FlagSet, args []string) (*options, error) {
	configPath := f.String("config", "", "the YAML config file; defaults are used if empty")
	workers := f.Int("workers", 0, "override event_batch.workers from the config")
	printEvents := f.Bool("print", false, "print every decoded event after its outcome")
	version := f.Bool("version", false, "print the version and exit")
	if err := f.Parse(args); err != nil {
		return nil, err
	}

	var cfg *config.Config
	if *configPath == "" {
		cfg = &config.Config{}
		cfg.Defaults(false)
	} else {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return nil, fmt.Errorf("config.Load: %w", err)
		}
	}
	if *workers > 0 {
		cfg.EventBatch.Workers = *workers
	}

	return &options{
		cfg:         cfg,
		printEvents: *printEvents,
		version:     *version,
		files:       f.Args(),
	}, nil
}

func run(ctx context.Context, f *flag.FlagSet, args []string, stdin io.Reader, stdout io.Writer) error {
	opts, err := parseFlags(f, args)
	if err != nil {
		return err
	}
	if opts.version {
		_, err = fmt.Fprintln(stdout, internal.VersionString())
		return err
	}
	if err = internal.SetupHookLogging(opts.cfg.Logging, "mxevents"); err != nil {
		return err
	}
	ctx = util.ContextWithLogger(ctx, logrus.WithFields(logrus.Fields{
		"component": "mxevents",
		"version":   internal.VersionString(),
	}))

	registry := prometheus.NewRegistry()
	var reg prometheus.Registerer
	if opts.cfg.Metrics.Enabled {
		reg = registry
	}
	processor, err := eventbatch.NewProcessor(&opts.cfg.EventBatch, events.DefaultCatalog, reg)
	if err != nil {
		return fmt.Errorf("eventbatch.NewProcessor: %w", err)
	}

	inputs, err := readInputs(opts.files, stdin)
	if err != nil {
		return err
	}

	var raws []json.RawMessage
	for _, in := range inputs {
		evs, err := eventbatch.SplitEvents(in.data)
		if err != nil {
			return fmt.Errorf("%s: %w", in.name, err)
		}
		raws = append(raws, evs...)
	}

	results, err := processor.Process(ctx, raws)
	if err != nil {
		return err
	}
	for i, res := range results {
		if err = writeResult(stdout, i, res, opts.printEvents); err != nil {
			return err
		}
	}

	summary := processor.Summarise(ctx, results)
	util.GetLogger(ctx).Infof(
		"Classified %d events: %d typed, %d unrecognised, %d skipped",
		len(results), len(summary.Events), len(summary.Unrecognised), summary.Skipped,
	)

	if opts.cfg.Metrics.Enabled {
		return writeMetrics(stdout, registry)
	}
	return nil
}

type input struct {
	name string
	data []byte
}

// readInputs returns the contents of each named file, or of stdin if there
// are none. Inputs are returned in the order given.
func readInputs(files []string, stdin io.Reader) ([]input, error) {
	if len(files) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return []input{{name: "<stdin>", data: data}}, nil
	}
	inputs := make([]input, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, input{name: file, data: data})
	}
	return inputs, nil
}

func writeResult(w io.Writer, i int, res events.Result, printEvent bool) error {
	outcome := eventbatch.Outcome(res)
	detail := ""
	if res.Err != nil {
		detail = res.Err.Error()
	}
	if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i, outcome, res.Type(), detail); err != nil {
		return err
	}
	if !printEvent || res.Event == nil {
		return nil
	}
	b, err := events.Serialize(res.Event)
	if err != nil {
		return fmt.Errorf("events.Serialize: %w", err)
	}
	_, err = fmt.Fprintf(w, "\t%s\n", b)
	return err
}

func writeMetrics(w io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gatherer.Gather: %w", err)
	}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			if _, err = fmt.Fprintf(w, "%s%s %v\n", family.GetName(), labels(metric), metric.GetCounter().GetValue()); err != nil {
				return err
			}
		}
	}
	return nil
}

func labels(metric *dto.Metric) string {
	pairs := make([]string, 0, len(metric.GetLabel()))
	for _, label := range metric.GetLabel() {
		pairs = append(pairs, fmt.Sprintf("%s=%q", label.GetName(), label.GetValue()))
	}
	if len(pairs) == 0 {
		return ""
	}
	sort.Strings(pairs)
	return "{" + strings.Join(pairs, ",") + "}"
}
