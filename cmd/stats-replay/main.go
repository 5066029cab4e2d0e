// Command stats-replay replays a daily step history through the stats calculator
// and the milestone engine and prints what fired on each day.
//
//	stats-replay --file history.json --goal 8000
//
// The history file is a JSON array of {"date":"2025-07-01","total_steps":9120,"total_distance_meters":6800}.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	file := pflag.StringP("file", "f", "", "JSON file with daily step summaries (- for stdin)")
	goal := pflag.IntP("goal", "g", 0, "daily step goal (0 uses the default)")
	verbose := pflag.BoolP("verbose", "v", false, "log engine activity")
	pflag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "--file is required")
		pflag.Usage()
		os.Exit(2)
	}

	logger := zap.NewNop()
	if *verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
	}
	defer logger.Sync()

	in, err := openInput(*file)
	if err != nil {
		logger.Fatal("Failed to open history", zap.Error(err))
	}
	defer in.Close()

	days, err := readHistory(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read history: %v\n", err)
		os.Exit(1)
	}

	report, err := replay(context.Background(), days, *goal, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Replay failed: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write report: %v\n", err)
		os.Exit(1)
	}
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}
