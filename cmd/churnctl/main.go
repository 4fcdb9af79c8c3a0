// Command churnctl inspects, queries and evaluates churn models offline.
package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/himanshu-dandle/telco-customer-churn/internal/config"
	"github.com/himanshu-dandle/telco-customer-churn/internal/logging"
)

func main() {
	if err := newRootCmd(config.Load()).Execute(); err != nil {
		log.Fatal().Err(err).Msg("execute root command")
	}
}

// newRootCmd builds the command tree; cfg supplies flag defaults.
func newRootCmd(cfg config.Config) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "churnctl",
		Short:         "Offline tooling for the customer churn model",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Logs go to stderr so stdout stays machine-readable.
			logging.Setup(logging.Options{Level: logLevel, Console: cmd.ErrOrStderr()})
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newInspectCmd(cfg),
		newPredictCmd(cfg),
		newEvaluateCmd(cfg),
		newAuditCmd(cfg),
	)
	root.SetOut(os.Stdout)
	return root
}
