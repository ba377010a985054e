package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
	"github.com/baalimago/go_away_boilerplate/pkg/shutdown"
	"github.com/weirwei/pricemcp"
)

const usage = `pricerange - lowest and highest price per symbol over the last calendar year,
fetched from an MCP tool server started over stdio.

Usage: pricerange [flags]

Flags:
  -config string            Path to a .json/.yaml config file. (default %s if it exists)
  -server string            Name of the entry in mcpServers to launch.
  -symbols string           Comma separated symbols, overrides the config file.
  -tool string              Tool to call. (default %s)
  -timeout int              Per request timeout in seconds, 0 disables it. (default %d)
  -leap-day string          clamp|rollover|error, start date when today is Feb 29. (default clamp)
  -out string               Append results to this file instead of stdout.
  -metrics-textfile string  Write Prometheus metrics to this file after the run.

Output: <symbol>\t<min>\t<max>, one line per symbol, or one line per price
series when the tool returns several content items for a symbol.
Environment: DEBUG=1 for diagnostics, DEBUG_CALL=1 to dump requests.
`

func main() {
	ancli.SetupSlog()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		ancli.PrintErr(fmt.Sprintf("invalid arguments: %v\n", err))
		return 2
	}
	if err := cfg.Validate(); err != nil {
		ancli.PrintErr(fmt.Sprintf("invalid config: %v\n", err))
		return 2
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { shutdown.Monitor(cancel) }()

	summary, err := pricemcp.Run(ctx, cfg, stdout, stderr)
	if err != nil {
		ancli.PrintErr(fmt.Sprintf("failed to run: %v\n", err))
		return 1
	}
	if misc.Truthy(os.Getenv("DEBUG")) {
		fmt.Fprintf(stderr, "%d lines for %d symbols, %d without data, %d failed\n",
			summary.Lines, summary.Emitted, summary.NoData, summary.Failed)
	}
	return 0
}

// parseFlags 加载配置文件，再用显式设置的 flag 覆盖
func parseFlags(args []string, stderr io.Writer) (*pricemcp.Config, error) {
	fs := flag.NewFlagSet("pricerange", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, usage, pricemcp.GetDefaultConfigPath(), pricemcp.DefaultToolName, pricemcp.DefaultRequestTimeoutSec)
	}

	configPath := fs.String("config", "", "")
	server := fs.String("server", "", "")
	symbols := fs.String("symbols", "", "")
	tool := fs.String("tool", "", "")
	timeout := fs.Int("timeout", pricemcp.DefaultRequestTimeoutSec, "")
	leapDay := fs.String("leap-day", "", "")
	out := fs.String("out", "", "")
	metricsTextfile := fs.String("metrics-textfile", "", "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "server":
			cfg.Server = *server
		case "symbols":
			cfg.Symbols = splitSymbols(*symbols)
		case "tool":
			cfg.ToolName = *tool
		case "timeout":
			cfg.RequestTimeoutSec = *timeout
		case "leap-day":
			cfg.LeapDayPolicy = pricemcp.LeapDayPolicy(*leapDay)
		case "out":
			cfg.Output = *out
		case "metrics-textfile":
			cfg.MetricsTextfile = *metricsTextfile
		}
	})
	return cfg, nil
}

func loadConfig(path string) (*pricemcp.Config, error) {
	if path != "" {
		return pricemcp.LoadConfig(path)
	}
	defaultPath := pricemcp.GetDefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		return pricemcp.LoadConfig(defaultPath)
	}
	return pricemcp.DefaultConfig(), nil
}

func splitSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
