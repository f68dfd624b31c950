// Package main provides the teamsartifacts CLI entry point.
// teamsartifacts converts Microsoft Teams JSON exports into typed forensic
// records for downstream review tooling.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chiabertolotti/teamsartifacts/cmd"
	"github.com/chiabertolotti/teamsartifacts/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "teamsartifacts",
	Short: "Teams export ingestion for forensic analysis",
	Long: `teamsartifacts parses the JSON files produced by a Microsoft Teams
export and emits typed records: messages, call logs, call recordings,
meetings, threads, members, contacts, mentions, reactions, and
attachments.

Input that does not match the expected shape degrades gracefully: the
affected fields are dropped or passed through raw, a degraded-input event
is recorded, and the rest of the export still processes.`,
	SilenceUsage: true,
}

func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.AddCommand(cmd.NewIngestCommand(loadConfig))
	rootCmd.AddCommand(cmd.NewVersionCommand())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
