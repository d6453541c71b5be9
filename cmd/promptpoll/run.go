package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
	"github.com/vbauerster/mpb/v8"

	"github.com/tbiehn/promptpoll"
	"github.com/tbiehn/promptpoll/internal/config"
	"github.com/tbiehn/promptpoll/internal/logging"
)

const (
	nameModeDerive    = "derive"
	nameModeTimestamp = "timestamp"
)

type runner struct {
	in  io.Reader
	out io.Writer
	now func() time.Time
	// estimate defaults to promptpoll.EstimateTokens, which may fetch encodings over the network.
	estimate func(promptpoll.RequestSpec) (int, error)
}

func (r *runner) action(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("env"))
	if err != nil {
		return err
	}
	applyFlags(cfg, cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}
	nameMode := cmd.String("name-mode")
	if nameMode != nameModeDerive && nameMode != nameModeTimestamp {
		return fmt.Errorf("unknown --name-mode %q (want %s or %s)", nameMode, nameModeDerive, nameModeTimestamp)
	}

	logFile, err := logging.OpenFile(cfg.LogFile)
	if err != nil {
		return err
	}
	defer logFile.Close()
	zl := logging.New(logging.Config{Level: cfg.LogLevel, Output: logFile}).
		With().Str("run_id", uuid.NewString()).Logger()
	logger := logging.NewAdapter(zl)

	prompt, count, err := r.collectInput(cmd)
	if err != nil {
		return err
	}
	logger.Infof("User prompt: %s", prompt)
	logger.Infof("Number of requests: %d", count)

	var transport promptpoll.Transport = promptpoll.NewHTTPTransport(cfg.Endpoint, cfg.APIKey, cfg.Timeout)
	if cfg.Retries > 0 {
		transport = promptpoll.NewRetryingTransport(transport, uint64(cfg.Retries), logger)
	}
	registry := prometheus.NewRegistry()
	poller := promptpoll.NewPoller(cfg.Settings(), transport, nil, logger)
	poller.Metrics = promptpoll.NewMetrics(registry)

	spec := poller.Settings.MainPayload(prompt)
	logger.Debugf("Main request payload created for model %s", spec.Model)
	estimate := promptpoll.EstimateTokens
	if r.estimate != nil {
		estimate = r.estimate
	}
	if tokens, err := estimate(spec); err != nil {
		logger.Warnf("Token estimate unavailable: %v", err)
	} else {
		logger.Infof("Estimated prompt tokens: %d per call, %d for the batch", tokens, tokens*count)
	}

	name := r.outputName(ctx, cmd, poller, prompt)
	outputFile := filepath.Join(cfg.OutputDir, name+".csv")
	fmt.Fprintf(r.out, "Responses will be saved to: %s\n", outputFile)
	logger.Infof("Output file: %s", outputFile)

	fmt.Fprintf(r.out, "Performing %d API calls...\n", count)
	// Auto refresh keeps the bar drawing when output is not a terminal.
	progress := mpb.NewWithContext(ctx, mpb.WithOutput(r.out), mpb.WithWidth(40), mpb.WithAutoRefresh())
	poller.Progress = progress
	results, err := poller.Run(ctx, spec, count)
	progress.Wait()
	if err != nil {
		return err
	}

	var sinkOpts []promptpoll.SinkOption
	if cmd.Bool("outcome-column") {
		sinkOpts = append(sinkOpts, promptpoll.WithOutcomeColumn())
	}
	if err := promptpoll.Persist(results, outputFile, sinkOpts...); err != nil {
		logger.Errorf("Writing results: %v", err)
		return err
	}
	fmt.Fprintf(r.out, "Finished! Responses saved to %s\n", outputFile)
	logger.Infof("Finished! Responses saved to %s", outputFile)

	if cmd.Bool("ratios") {
		r.printRatios(results)
	}
	if path := cmd.String("metrics-file"); path != "" {
		if err := prometheus.WriteToTextfile(path, registry); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	return nil
}

func (r *runner) collectInput(cmd *cli.Command) (string, int, error) {
	in := bufio.NewReader(r.in)

	prompt := cmd.String("prompt")
	if !cmd.IsSet("prompt") {
		fmt.Fprintln(r.out, "Welcome to the API interaction tool.")
		fmt.Fprintln(r.out, "You will be asked for a prompt and how many times to call the API.")
		var err error
		if prompt, err = readPrompt(in, r.out); err != nil {
			return "", 0, err
		}
	}

	if cmd.IsSet("count") {
		count := cmd.Int("count")
		if count <= 0 {
			return "", 0, fmt.Errorf("--count: %w", promptpoll.ErrInvalidCount)
		}
		return prompt, count, nil
	}
	count, err := readCount(in, r.out)
	if err != nil {
		return "", 0, err
	}
	return prompt, count, nil
}

func (r *runner) outputName(ctx context.Context, cmd *cli.Command, poller *promptpoll.Poller, prompt string) string {
	if name := cmd.String("name"); name != "" {
		return promptpoll.Sanitize(name)
	}
	if cmd.String("name-mode") == nameModeTimestamp {
		now := time.Now
		if r.now != nil {
			now = r.now
		}
		return promptpoll.TimestampedName(prompt, now())
	}
	fmt.Fprintln(r.out, "Fetching a descriptive filename, please wait...")
	name := poller.DeriveFilename(ctx, prompt)
	if name == promptpoll.DefaultFilename {
		fmt.Fprintf(r.out, "Failed to fetch a filename. Using '%s' instead.\n", promptpoll.DefaultFilename)
	}
	return name
}

func (r *runner) printRatios(results promptpoll.ResultSet) {
	fmt.Fprintln(r.out, "Answer ratios:")
	for _, ratio := range promptpoll.Ratios(results) {
		fmt.Fprintf(r.out, "  %6.2f%%  %4d  %s\n", ratio.Proportion*100, ratio.Count, ratio.Answer)
	}
	if failed := results.Failed(); failed > 0 {
		fmt.Fprintf(r.out, "  (%d failed calls excluded)\n", failed)
	}
}

func applyFlags(cfg *config.Config, cmd *cli.Command) {
	if cmd.IsSet("parallel") {
		cfg.MaxParallel = cmd.Int("parallel")
	}
	if cmd.IsSet("model") {
		cfg.Model = cmd.String("model")
	}
	if cmd.IsSet("endpoint") {
		cfg.Endpoint = cmd.String("endpoint")
	}
	if cmd.IsSet("output-dir") {
		cfg.OutputDir = cmd.String("output-dir")
	}
	if cmd.IsSet("retries") {
		cfg.Retries = cmd.Int("retries")
	}
}
