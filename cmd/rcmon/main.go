package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/sharedref"
)

func main() {
	var (
		scenarioFile = flag.String("scenario", "", "Path to a YAML scenario to replay")
		interactive  = flag.Bool("i", false, "Interactive mode with TUI")
		verbose      = flag.Bool("v", false, "Log handle lifecycle events")
	)
	flag.Parse()

	if *scenarioFile == "" && !*interactive {
		fmt.Fprintln(os.Stderr, "Usage: rcmon -scenario <file.yaml> [-v]")
		fmt.Fprintln(os.Stderr, "       rcmon -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		sharedref.SetLogger(logger)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	report, err := replayFile(*scenarioFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	report.Print(os.Stdout)
	if report.Leaked() {
		os.Exit(1)
	}
}
