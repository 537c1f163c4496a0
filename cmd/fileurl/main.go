// Package main provides the entry point for the fileurl CLI tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/fileurl/cmd/fileurl/commands"
	"github.com/Sumatoshi-tech/fileurl/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "fileurl",
		Short: "Turn local file paths into shareable GitHub links",
		Long: `fileurl resolves files inside a git checkout into GitHub URLs on the
current branch, following submodules and worktrees.

Commands:
  url       Print links for one or more files
  mcp       Serve the resolver as MCP tools on stdio`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	commands.RegisterGlobalFlags(rootCmd)

	rootCmd.AddCommand(commands.NewURLCommand())
	rootCmd.AddCommand(commands.NewMCPCommand())
	rootCmd.AddCommand(versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "fileurl %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
