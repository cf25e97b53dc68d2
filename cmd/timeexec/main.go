package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	te "github.com/kpn-digital/timeexecution"
	"github.com/kpn-digital/timeexecution/internal/meta"
	"github.com/kpn-digital/timeexecution/internal/setup"
	"github.com/kpn-digital/timeexecution/internal/sysload"
	"github.com/kpn-digital/timeexecution/log"
)

func main() {
	cmd := &cli.Command{
		Name:    "timeexec",
		Usage:   "Time commands and ship execution metrics to the configured backends",
		Version: meta.Version(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the configuration file on disk",
				Sources: cli.EnvVars("TIMEEXEC_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "verbosity",
				Value: "error",
				Usage: "desired logging verbosity: one of error, warn, info, debug",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "exec",
				Usage:     "run a command and emit its execution time",
				ArgsUsage: "-- command [args...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "metric name; defaults to exec.<command>",
					},
				},
				Action: execCommand,
			},
			{
				Name:      "write",
				Usage:     "emit a single metric",
				ArgsUsage: "name value [key=value...]",
				Action:    writeCommand,
			},
			{
				Name:  "load",
				Usage: "periodically emit host load and memory usage until interrupted",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "interval",
						Usage: "sampling interval; overrides the sysload config block",
					},
				},
				Action: loadCommand,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "timeexec: %v\n", err)
		os.Exit(1)
	}
}

// initialize parses the logging verbosity and the configuration file, and builds the pipeline.
func initialize(ctx context.Context, cmd *cli.Command) (*meta.Config, *setup.Pipeline, log.Logger, error) {
	// Logging configuration; default to log.Error verbosity
	level, _ := log.ParseLevel(cmd.String("verbosity"))

	configPath := cmd.String("config")

	var cfg *meta.Config
	var err error
	if configPath == "" {
		cfg, err = meta.Parse(nil)
	} else {
		cfg, err = meta.ParseConfig(configPath)
	}
	if err != nil {
		return nil, nil, nil, err
	}

	logger := setup.NewLogger(cfg.Application.LogFormat, level, os.Stderr)
	logger.Debug("main: initialized logger: level=%v config=%s", level, configPath)

	pipeline, err := setup.Build(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Info("main: built %s", pipeline)

	return cfg, pipeline, logger, nil
}

// shutdown flushes the pipeline, giving queued metrics a bounded amount of time.
func shutdown(pipeline *setup.Pipeline, logger log.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := pipeline.Close(ctx); err != nil {
		logger.Warn("main: error closing pipeline: err=%v", err)
	}
}

// warnUnexported notes Prometheus series that no exporter serves under the given command. Only load
// runs long enough to be scraped, and only when a listening address is configured.
func warnUnexported(pipeline *setup.Pipeline, command string, logger log.Logger) {
	switch {
	case pipeline.Registry == nil:
	case command != "load":
		logger.Warn("main: prometheus metrics are only exported by the load command; discarding them: command=%s", command)
	case pipeline.Exporter == nil:
		logger.Warn("main: prometheus backend has no listening address; metrics are not exported")
	}
}

func execCommand(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return fmt.Errorf("exec: missing command")
	}

	_, pipeline, logger, err := initialize(ctx, cmd)
	if err != nil {
		return err
	}
	defer shutdown(pipeline, logger)
	warnUnexported(pipeline, "exec", logger)

	name := cmd.String("name")
	if name == "" {
		name = "exec." + filepath.Base(args[0])
	}

	callArgs := make([]interface{}, len(args))
	for idx, arg := range args {
		callArgs[idx] = arg
	}

	exitCode, err := te.Time(ctx, pipeline.Config, te.Call{Name: name, Args: callArgs}, func() (int, error) {
		child := exec.CommandContext(ctx, args[0], args[1:]...)
		child.Stdin, child.Stdout, child.Stderr = os.Stdin, os.Stdout, os.Stderr

		err := child.Run()
		if child.ProcessState == nil {
			return -1, err
		}

		return child.ProcessState.ExitCode(), err
	})

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return cli.Exit("", exitCode)
	}

	return err
}

func writeCommand(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 2 {
		return fmt.Errorf("write: expected a metric name and value")
	}

	name := cmd.Args().Get(0)
	value, ok := parseNumber(cmd.Args().Get(1))
	if !ok {
		return fmt.Errorf("write: metric value must be numeric: value=%s", cmd.Args().Get(1))
	}

	fields, err := parseFields(cmd.Args().Slice()[2:])
	if err != nil {
		return err
	}
	fields[te.ValueField] = value

	_, pipeline, logger, err := initialize(ctx, cmd)
	if err != nil {
		return err
	}
	defer shutdown(pipeline, logger)
	warnUnexported(pipeline, "write", logger)

	return pipeline.Config.WriteMetric(ctx, name, fields)
}

func loadCommand(ctx context.Context, cmd *cli.Command) error {
	cfg, pipeline, logger, err := initialize(ctx, cmd)
	if err != nil {
		return err
	}
	defer shutdown(pipeline, logger)
	warnUnexported(pipeline, "load", logger)

	interval := meta.DefaultSysloadInterval
	prefix := ""
	if cfg.Sysload != nil {
		interval = cfg.Sysload.Interval
		prefix = cfg.Sysload.Prefix
	}
	if cmd.Duration("interval") > 0 {
		interval = cmd.Duration("interval")
	}

	// Setup graceful shutdown
	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sampler := sysload.New(pipeline.Config, interval, prefix, logger)
	sampler.Run(runCtx)
	defer sampler.Wait()

	logger.Info("main: sampling host load: interval=%v", interval)

	if pipeline.Exporter == nil {
		<-runCtx.Done()
		return nil
	}

	if err := pipeline.Exporter.Start(runCtx); err != nil {
		stop()
		return fmt.Errorf("prometheus exporter: %w", err)
	}

	return nil
}

// parseNumber reads an integer or floating point metric value.
func parseNumber(raw string) (interface{}, bool) {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i, true
	}

	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f, true
	}

	return nil, false
}

// parseFields reads key=value arguments into metric fields. Values are typed as numbers or booleans
// when they parse as such and kept as strings otherwise.
func parseFields(args []string) (te.Fields, error) {
	fields := make(te.Fields, len(args)+1)

	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("write: malformed field, expected key=value: field=%s", arg)
		}

		if key == te.NameField || key == te.ValueField {
			return nil, fmt.Errorf("write: reserved field name: field=%s", key)
		}

		if number, isNumber := parseNumber(raw); isNumber {
			fields[key] = number
		} else if b, err := strconv.ParseBool(raw); err == nil {
			fields[key] = b
		} else {
			fields[key] = raw
		}
	}

	return fields, nil
}
