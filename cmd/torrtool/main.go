package main

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/torrtool/torrtool/internal/manifest"
)

var version = "dev"

var (
	verbose bool
	quiet   bool
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := &cobra.Command{
		Use:     "torrtool",
		Short:   "Create, merge, modify and inspect BitTorrent v2 torrents",
		Version: version,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			} else if quiet {
				level = slog.LevelWarn
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			}))
			slog.SetDefault(logger)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress log messages")

	rootCmd.AddCommand(newCmd, addCmd, mergeCmd, modifyCmd, printCmd)

	if err := rootCmd.Execute(); err != nil {
		if exitErr, ok := err.(*exitError); ok {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

// trackerFlag is a custom pflag.Value that builds tracker tiers in CLI
// order: --tracker opens a new tier, --tracker-tier appends to the last one.
type trackerFlag struct {
	tiers   *[][]string
	newTier bool
}

func (*trackerFlag) String() string { return "" }
func (*trackerFlag) Type() string   { return "url" }

func (f *trackerFlag) Set(val string) error {
	if f.newTier || len(*f.tiers) == 0 {
		*f.tiers = append(*f.tiers, []string{val})
		return nil
	}
	last := len(*f.tiers) - 1
	(*f.tiers)[last] = append((*f.tiers)[last], val)
	return nil
}

// parseNodes converts host:port strings into DHT node records.
func parseNodes(specs []string) ([]manifest.DHTNode, error) {
	nodes := make([]manifest.DHTNode, 0, len(specs))
	for _, spec := range specs {
		host, portStr, err := net.SplitHostPort(spec)
		if err != nil {
			return nil, fmt.Errorf("invalid DHT node %q: %w", spec, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("invalid DHT node port %q", portStr)
		}
		nodes = append(nodes, manifest.DHTNode{Host: host, Port: port})
	}
	return nodes, nil
}
