package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"microsoc/internal/report"
)

func main() {
	input := flag.String("input", "output/events.jsonl", "Event JSONL input path")
	output := flag.String("output", "", "Summary JSON output path (default: stdout)")
	topN := flag.Int("top", 10, "Number of top sources to include")
	flag.Parse()

	events, err := report.LoadEventsJSONL(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load events: %v\n", err)
		os.Exit(1)
	}

	summary := report.Summarize(events, *topN)

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create output file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode summary: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "summarized events=%d sources=%d\n", summary.TotalEvents, len(summary.TopSources))
}
