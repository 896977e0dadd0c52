package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docscan/internal/repository"
)

var healthTimeout time.Duration

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the record store is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, logger, err := open(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		if err := repository.HealthCheck(cmd.Context(), app.DB, healthTimeout, logger); err != nil {
			cmd.Printf("DB health: FAIL (%v)\n", err)
			return err
		}
		cmd.Printf("DB health: OK (%s)\n", app.DB.Dialect())
		cmd.Printf("providers: %v\n", app.Router.Providers())
		return nil
	},
}

func init() {
	healthCmd.Flags().DurationVar(&healthTimeout, "timeout", time.Second, "ping timeout")
	rootCmd.AddCommand(healthCmd)
}
