package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/matrix-org/mxevents/setup/config"
	"gopkg.in/yaml.v2"
)

func main() {
	cfg, err := buildConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		panic(err)
	}

	j, err := yaml.Marshal(cfg)
	if err != nil {
		panic(err)
	}

	fmt.Println(string(j))
}

func buildConfig(f *flag.FlagSet, args []string) (*config.Config, error) {
	defaultsForCI := f.Bool("ci", false, "sane defaults for CI testing")
	logDir := f.String("log-dir", "", "also write logs to daily rotated files in this directory")
	if err := f.Parse(args); err != nil {
		return nil, err
	}

	cfg := &config.Config{}
	cfg.Defaults(true)
	if *logDir != "" {
		cfg.Logging = append(cfg.Logging, config.LogrusHook{
			Type:  "file",
			Level: "info",
			Params: map[string]interface{}{
				"path": *logDir,
			},
		})
	}

	if *defaultsForCI {
		cfg.EventBatch.Workers = 1
		for i := range cfg.Logging {
			cfg.Logging[i].Level = "trace"
		}
	}
	return cfg, nil
}
