package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	httpcmd "github.com/clinicbook/backend/cmd/http"
	systemcmd "github.com/clinicbook/backend/cmd/system"
)

var (
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "clinicbook",
	Short: "ClinicBook appointment booking backend for clinics.",
	Long: `ClinicBook is the booking backend for a clinic: patients browse doctors,
book half-hour time slots and cancel them, while the engine guards the
scheduling rules: slot validation, double-booking prevention and the
one-hour cancellation window.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global config flag, available for all commands.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	// Attach top-level command trees.
	rootCmd.AddCommand(systemcmd.NewSystemCommand())
	rootCmd.AddCommand(httpcmd.NewHTTPCommand())
}
