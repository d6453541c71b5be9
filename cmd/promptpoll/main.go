package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand(&runner{in: os.Stdin, out: os.Stdout}).Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "promptpoll:", err)
		os.Exit(1)
	}
}

func newCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:      "promptpoll",
		Usage:     "send one prompt to a chat-completion endpoint many times and save every answer as CSV",
		Reader:    r.in,
		Writer:    r.out,
		ErrWriter: r.out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Usage: "path of an optional .env file",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:    "prompt",
				Aliases: []string{"p"},
				Usage:   "prompt to poll (asked for interactively when omitted)",
			},
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "number of calls to make (asked for interactively when omitted)",
			},
			&cli.IntFlag{
				Name:  "parallel",
				Usage: "maximum calls in flight (default PROMPTPOLL_MAX_PARALLEL or 100)",
			},
			&cli.StringFlag{
				Name:  "model",
				Usage: "model identifier (default PROMPTPOLL_MODEL)",
			},
			&cli.StringFlag{
				Name:  "endpoint",
				Usage: "chat-completions URL (default PROMPTPOLL_ENDPOINT)",
			},
			&cli.StringFlag{
				Name:  "output-dir",
				Usage: "directory for the CSV file (default PROMPTPOLL_OUTPUT_DIR or results)",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "output file stem; skips filename derivation",
			},
			&cli.StringFlag{
				Name:  "name-mode",
				Usage: "how to name the output when --name is absent: derive or timestamp",
				Value: nameModeDerive,
			},
			&cli.BoolFlag{
				Name:  "outcome-column",
				Usage: "add an Outcome column telling failures apart from answers",
			},
			&cli.BoolFlag{
				Name:  "ratios",
				Usage: "print the frequency of each distinct answer when done",
			},
			&cli.IntFlag{
				Name:  "retries",
				Usage: "retry transport errors, 429 and 5xx up to this many times per call (default PROMPTPOLL_RETRIES or 0)",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "write Prometheus metrics for the run to this file",
			},
		},
		Action: r.action,
	}
}
