package main

import (
	"context"
	"fmt"

	"github.com/aretw0/concierge/internal/cli"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index <dir>",
	Short: "Index travel articles into the content store",
	Long: `Loads every .md and .txt article below dir and indexes it into the configured content store.
The first "# " heading is the title and a "url:" line the source; already indexed sources are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		rt, err := cli.Build(sigCtx, cfg, logger, nil)
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close(context.Background()) }()

		report, err := cli.IndexDir(sigCtx, rt.Content, args[0], logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "indexed %d document(s) in %d chunk(s), skipped %d\n",
			report.Documents, report.Chunks, report.Skipped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
