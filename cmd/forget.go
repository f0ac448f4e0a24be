package cmd

import (
	"fmt"

	"appointment-watcher/apperr"
	"appointment-watcher/config"
	"appointment-watcher/logging"
	"appointment-watcher/types"

	"github.com/spf13/cobra"
)

func newForgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget",
		Short: "Clear the saved appointment so the next run starts from scratch",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return apperr.Wrap(apperr.ConfigFatal, "load config", err)
			}
			store, closeStore, err := openStore(cmd.Context(), cfg, logging.Discard())
			if err != nil {
				return err
			}
			defer closeStore()

			if err := store.Save(cmd.Context(), types.MonitorState{}); err != nil {
				return fmt.Errorf("clear state: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "🧹 Saved appointment cleared.")
			return nil
		},
	}
}
