package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/event-harvest/internal/logger"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var version = "dev"

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	configPath string
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "event-harvest",
		Short: "Harvest psychoanalytic events from websites and newsletters",
		Long: `A CLI tool that collects event announcements from society websites and
email newsletters, validates and scores them, and keeps a deduplicated catalog.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config.yaml (default ./config.yaml)")

	cmd.AddCommand(
		newRunCmd(opts),
		newCleanCmd(opts),
		newListCmd(opts),
		newSourcesCmd(opts),
	)

	return cmd
}

// Execute runs the CLI; ctx is cancelled on interrupt
func Execute(ctx context.Context) {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(ExitError)
	}
	logger.Sync()
}
