// mcp-dataplex: BigQuery, Dataplex and Data Lineage metadata over MCP.
//
// Usage:
//
//	mcp-dataplex serve                      # Start MCP server (stdio transport)
//	mcp-dataplex call get_table_metadata --dataset sales --table orders
//	mcp-dataplex version --check            # Print version, check for a newer release
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/HendryAvila/mcp-dataplex/internal/config"
	"github.com/HendryAvila/mcp-dataplex/internal/logging"
	"github.com/HendryAvila/mcp-dataplex/internal/server"
	"github.com/HendryAvila/mcp-dataplex/internal/service"
	"github.com/HendryAvila/mcp-dataplex/internal/updater"
)

// newChecker is replaced in tests.
var newChecker = updater.NewChecker

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mcp-dataplex",
		Short: "MCP server for BigQuery metadata, Dataplex data quality and Data Lineage",
		Long: `mcp-dataplex exposes read-only BigQuery, Dataplex and Data Lineage metadata
for one GCP project as MCP tools over stdio.

Configuration comes from GCP_PROJECT_ID / CACHE_ENABLED (or a legacy
mcp-dataplex-config.json), overridable with flags. Authentication uses
Application Default Credentials: gcloud auth application-default login`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(newServeCmd(), newCallCmd(), newVersionCmd())
	return root
}

// loadConfig reads and validates configuration for cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, *logging.Logger, error) {
	flags := cmd.Flags()
	cfgFile, _ := flags.GetString("config")

	cfg, err := config.Load(cfgFile, flags)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger := logging.New(cfg.Debug)
	if cfg.FileUsed != "" {
		logger.Info("loaded config file", "path", cfg.FileUsed)
	}
	logger.Info("using GCP project", "project", cfg.GCP.ProjectID, "auth", "application default credentials")
	return cfg, logger, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio transport)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			// Graceful shutdown on interrupt.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, cleanup, err := server.New(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer cleanup()

			// Background version check; logs go to stderr so stdout stays
			// reserved for the protocol.
			go func() {
				res := newChecker().Check(ctx, server.Version)
				switch {
				case res.Err != nil:
					logger.Debug("update check skipped", "error", res.Err.Error())
				case res.Newer:
					logger.Info("update available",
						"current", res.Current,
						"latest", res.Latest,
						"release", res.URL,
					)
				}
			}()

			logger.Info("MCP Dataplex server running on stdio", "version", server.Version)
			err = mcpserver.NewStdioServer(s).Listen(ctx, os.Stdin, os.Stdout)
			if err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}

func newCallCmd() *cobra.Command {
	var (
		datasetID string
		tableID   string
		depth     int
	)
	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Run one tool and print its JSON result",
		Long: "Run one tool outside MCP and print its result as JSON on stdout.\n\n" +
			"Tools: " + fmt.Sprint(service.ToolNames()),
		Args:      cobra.ExactArgs(1),
		ValidArgs: service.ToolNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			svc, cleanup, err := server.NewService(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			return runTool(cmd.Context(), svc, cmd.OutOrStdout(), args[0],
				toolArgs(cmd, datasetID, tableID, depth))
		},
	}
	cmd.Flags().StringVar(&datasetID, "dataset", "", "dataset ID")
	cmd.Flags().StringVar(&tableID, "table", "", "table ID")
	cmd.Flags().IntVar(&depth, "depth", service.DefaultLineageDepth, "lineage depth (get_data_lineage only)")
	return cmd
}

// toolArgs builds the argument map from the flags the user actually set.
func toolArgs(cmd *cobra.Command, datasetID, tableID string, depth int) map[string]any {
	args := map[string]any{}
	if cmd.Flags().Changed("dataset") {
		args["datasetId"] = datasetID
	}
	if cmd.Flags().Changed("table") {
		args["tableId"] = tableID
	}
	if cmd.Flags().Changed("depth") {
		args["maxDepth"] = depth
	}
	return args
}

// runTool executes name through h and writes indented JSON to w.
func runTool(ctx context.Context, h service.ToolHandler, w io.Writer, name string, args map[string]any) error {
	res, err := h.Execute(ctx, name, args)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func newVersionCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mcp-dataplex %s\n", server.Version)
			if !check {
				return nil
			}

			res := newChecker().Check(cmd.Context(), server.Version)
			switch {
			case res.Err != nil:
				fmt.Fprintf(out, "Could not determine the latest release: %v\n", res.Err)
			case res.Newer:
				fmt.Fprintf(out, "Update available: %s -> %s\n%s\n", res.Current, res.Latest, res.URL)
			default:
				fmt.Fprintln(out, "Already at the latest version.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "check GitHub for a newer release")
	return cmd
}
