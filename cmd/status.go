package cmd

import (
	"fmt"

	"appointment-watcher/apperr"
	"appointment-watcher/config"
	"appointment-watcher/logging"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the earliest appointment found so far",
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

			state, err := store.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load state: %w", err)
			}
			if state.Empty() {
				fmt.Fprintln(cmd.OutOrStdout(), "No appointment tracked yet.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Earliest appointment: %s (%s)\n",
				state.Earliest, state.Earliest.When.Format("2006-01-02 15:04"))
			return nil
		},
	}
}
