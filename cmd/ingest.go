// Package cmd provides the CLI commands for the teamsartifacts tool.
package cmd

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/chiabertolotti/teamsartifacts/config"
	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/observability"
	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/pipeline"
	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/sink"
	"github.com/chiabertolotti/teamsartifacts/pkg/logging"
)

// NewIngestCommand builds the ingest subcommand, which runs a full export
// ingestion and writes the record stream to the configured output.
func NewIngestCommand(loadConfig func() (*config.Config, error)) *cobra.Command {
	var (
		exportDir  string
		outputPath string
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest a Teams export directory into a record stream",
		Long: `Ingest reads a Microsoft Teams JSON export and emits typed forensic
records (messages, call logs, meetings, threads, contacts, mentions,
reactions, attachments) as JSON Lines.

The export is processed in three phases: people, then conversations, then
reply-chain messages, so every message record carries resolved contact
names and tenant ids.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if exportDir != "" {
				cfg.Export.Dir = exportDir
			}
			if outputPath != "" {
				cfg.Output.Path = outputPath
			}
			if workers > 0 {
				cfg.Workers = workers
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			log := logging.NewLogger(&logging.Config{
				Level:      logging.Level(cfg.Log.Level),
				Component:  "ingest",
				JSONFormat: cfg.Log.JSON,
				Output:     cmd.ErrOrStderr(),
			})

			var metrics *observability.IngestMetrics
			if cfg.Metrics.Enabled {
				metrics = observability.DefaultIngestMetrics()
				go serveMetrics(cfg.Metrics.Listen, log)
			}

			out, err := sink.OpenJSONL(cfg.Output.Path)
			if err != nil {
				return err
			}

			p := pipeline.New(pipeline.Options{
				ExportDir:         cfg.Export.Dir,
				PeopleFile:        cfg.Export.PeopleFile,
				ConversationsFile: cfg.Export.ConversationsFile,
				Workers:           cfg.Workers,
				Log:               log,
				Metrics:           metrics,
			})

			res, runErr := p.Run(cmd.Context(), out)
			if closeErr := out.Close(); closeErr != nil && runErr == nil {
				runErr = closeErr
			}
			if runErr != nil {
				return runErr
			}

			printSummary(cmd, cfg.Output.Path, res)
			return nil
		},
	}

	cmd.Flags().StringVarP(&exportDir, "export-dir", "d", "", "directory holding the export .json files")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file path (JSON Lines)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "concurrent reply-chain workers")
	return cmd
}

func printSummary(cmd *cobra.Command, outputPath string, res *pipeline.Result) {
	cmd.Printf("job %s finished in %s\n", res.JobID, res.Elapsed.Round(time.Millisecond))

	categories := make([]string, 0, len(res.Counts))
	for c := range res.Counts {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		cmd.Printf("  %-16s %d\n", c, res.Counts[c])
	}
	if res.Degraded > 0 {
		cmd.Printf("  %d record(s) ingested with degraded input\n", res.Degraded)
	}
	cmd.Printf("records written to %s\n", outputPath)
}

func serveMetrics(listen string, log logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(listen, mux); err != nil {
		log.Error("metrics endpoint failed", logging.Err(err))
	}
}
