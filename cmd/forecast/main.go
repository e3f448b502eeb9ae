// Command forecast computes cash-flow metrics for a balance series.
//
// Usage:
//
//	forecast [file.json]
//
// The input is a JSON array of {"date": "YYYY-MM-DD", "total": 123.45}
// sorted by date, first element being today. Without a file argument the
// series is read from stdin.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"

	"finance-dashboard/internal/config"
	"finance-dashboard/internal/domain"
	"finance-dashboard/internal/metrics"
)

func main() {
	pretty := flag.Bool("pretty", false, "Indent JSON output")
	flag.Parse()

	if err := run(flag.Arg(0), os.Stdin, os.Stdout, *pretty); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(path string, stdin io.Reader, out io.Writer, pretty bool) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	in := stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrap(err, "open input")
		}
		defer f.Close()
		in = f
	}

	series, err := readSeries(in)
	if err != nil {
		return err
	}

	result := metrics.NewEngine(cfg.MetricsThresholds()).Compute(series)

	enc := json.NewEncoder(out)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return errors.Wrap(enc.Encode(result), "encode metrics")
}

func readSeries(r io.Reader) (domain.BalanceSeries, error) {
	var series domain.BalanceSeries
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&series); err != nil {
		return nil, errors.Wrap(err, "decode balance series")
	}
	for i, p := range series {
		if _, err := time.Parse(domain.DateLayout, p.Date); err != nil {
			return nil, errors.Wrapf(err, "point %d: invalid date", i)
		}
	}
	return series, nil
}
