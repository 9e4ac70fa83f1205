package main

import (
	"context"
	"os"

	"github.com/aretw0/concierge"
	"github.com/aretw0/concierge/internal/cli"
	"github.com/aretw0/concierge/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		sessionID, _ := cmd.Flags().GetString("session")

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		rt, err := cli.Build(sigCtx, cfg, logger, nil)
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close(context.Background()) }()

		if dir, _ := cmd.Flags().GetString("articles"); dir != "" {
			if _, err := cli.IndexDir(sigCtx, rt.Content, dir, logger); err != nil {
				return err
			}
		}

		if term.IsTerminal(int(os.Stdout.Fd())) {
			tui.PrintBanner(os.Stdout, concierge.Version)
		}
		return cli.RunChat(sigCtx, rt.Assistant, cli.ChatOptions{
			SessionID: sessionID,
			In:        os.Stdin,
			Out:       os.Stdout,
			Render:    tui.NewRenderer(os.Stdout),
			Logger:    logger,
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("session", "", "Session ID to continue")
	chatCmd.Flags().String("articles", "", "Directory of travel articles to index before chatting")
}
