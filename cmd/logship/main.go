// Command logship emits log records to a RabbitMQ queue through the amqplog
// handlers. It is a smoke-test companion for the library: point it at a
// broker, watch the queue fill up.
//
// Broker connection settings come from RABBITMQ_* environment variables;
// routing is configured with flags. By default it emits a small built-in
// sequence of records; pass --scenario to replay a YAML file of steps
// instead:
//
//	- level: info
//	  message: service started
//	- level: warning
//	  message: memory high
//	  queue: alerts
//	  repeat: 3
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	clog "charm.land/log/v2"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/amqplog/amqplog"
	"github.com/amqplog/amqplog/version"
)

// handler is satisfied by both amqplog handler variants.
type handler interface {
	slog.Handler
	Close() error
}

type options struct {
	async    bool
	scenario string
	repeats  int
	interval time.Duration
}

// step is one record in a YAML scenario file.
type step struct {
	Level   string `yaml:"level"`
	Message string `yaml:"message"`
	Queue   string `yaml:"queue"`
	Repeat  int    `yaml:"repeat"`
}

func main() {
	cfg := amqplog.NewConfig()
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "logship [flags]",
		Short: "Emit log records to a RabbitMQ queue",
		Long: `logship publishes structured JSON log records to a RabbitMQ queue using the
amqplog handlers. Broker connection settings are read from RABBITMQ_HOST,
RABBITMQ_PORT, RABBITMQ_USERNAME, and RABBITMQ_PASSWORD.`,
		Version:       version.Short(),
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(cfg, opts)
		},
	}

	cfg.RegisterFlags(rootCmd.Flags())
	rootCmd.Flags().BoolVar(&opts.async, "async", false,
		"publish from a background worker instead of the calling goroutine")
	rootCmd.Flags().StringVar(&opts.scenario, "scenario", "",
		"YAML scenario file to replay instead of the built-in records")
	rootCmd.Flags().IntVar(&opts.repeats, "repeats", 1,
		"number of times to run the scenario")
	rootCmd.Flags().DurationVar(&opts.interval, "interval", 0,
		"pause between records")

	completionErr := cfg.RegisterCompletions(rootCmd)
	if completionErr != nil {
		fmt.Fprintf(os.Stderr, "register completions: %v\n", completionErr)
	}

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(cfg *amqplog.Config, opts *options) error {
	cli := clog.NewWithOptions(os.Stderr, clog.Options{
		Prefix:          "logship",
		ReportTimestamp: true,
	})

	if err := cfg.LoadEnv(); err != nil {
		return err
	}

	steps := defaultSteps()
	if opts.scenario != "" {
		var err error
		steps, err = loadScenario(opts.scenario)
		if err != nil {
			return err
		}
	}

	h, err := newHandler(cfg, opts, cli)
	if err != nil {
		return err
	}

	cli.Info("connected",
		"host", cfg.Host,
		"service", cfg.Service,
		"queue", cfg.Queue,
		"async", opts.async)

	logger := slog.New(h)
	sent := emit(logger, steps, opts)

	if err := h.Close(); err != nil {
		cli.Error("closing handler", "err", err)
	}

	cli.Info("done", "records", sent)

	return nil
}

func newHandler(cfg *amqplog.Config, opts *options, cli *clog.Logger) (handler, error) {
	onError := amqplog.WithErrorHandler(func(err error) {
		cli.Error("publish failed", "err", err)
	})

	if opts.async {
		return amqplog.NewAsync(cfg, onError)
	}

	return amqplog.New(cfg, onError)
}

func emit(logger *slog.Logger, steps []step, opts *options) int {
	sent := 0

	for range opts.repeats {
		for _, s := range steps {
			lvl, err := amqplog.ParseLevel(s.Level)
			if err != nil {
				lvl = amqplog.LevelInfo
			}

			repeat := max(s.Repeat, 1)
			for range repeat {
				var args []any
				if s.Queue != "" {
					args = append(args, amqplog.QueueKey, s.Queue)
				}

				logger.Log(context.Background(), lvl.SlogLevel(), s.Message, args...)
				sent++

				if opts.interval > 0 {
					time.Sleep(opts.interval)
				}
			}
		}
	}

	return sent
}

func loadScenario(path string) ([]step, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}

	var steps []step
	if err := yaml.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}

	return steps, nil
}

func defaultSteps() []step {
	return []step{
		{Level: "info", Message: "service started"},
		{Level: "debug", Message: "processing item"},
		{Level: "warning", Message: "memory high", Queue: string(amqplog.QueueAlerts)},
		{Level: "error", Message: "database connection failed", Queue: string(amqplog.QueueAlerts)},
	}
}
