package main

import (
	"context"
	"fmt"

	"github.com/aretw0/concierge/internal/cli"
	"github.com/aretw0/concierge/pkg/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the travel graph visualization",
	Long:  `Outputs a Mermaid diagram (graph TD) of the travel graph. With --session the nodes visited by that session's last turn are highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		if sessionID == "" {
			g, err := cli.StaticGraph()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), graph.Mermaid(g, nil))
			return nil
		}

		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		rt, err := cli.Build(ctx, cfg, logger, nil)
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close(context.Background()) }()

		state, err := rt.Assistant.Sessions().Load(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to load session %q: %w", sessionID, err)
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.Mermaid(rt.Assistant.Graph(), graph.OverlayFromState(state)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("session", "", "Highlight the nodes visited by this session's last turn")
}
