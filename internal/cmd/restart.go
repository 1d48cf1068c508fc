package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Ask a running daemon to reload its projects",
	Long: `Rewrite the registry file so a running daemon reloads it and
reconciles its set of watched projects. Useful after editing the
registry by hand. Has no effect when no daemon is running.`,
	Args: cobra.NoArgs,
	RunE: runRestart,
}

func init() {
	rootCmd.AddCommand(restartCmd)
}

func runRestart(cmd *cobra.Command, args []string) error {
	_, reg, err := loadRegistry()
	if err != nil {
		return err
	}

	if err := reg.Touch(); err != nil {
		return err
	}

	fmt.Println("Registry rewritten; a running daemon will reconcile its projects")
	return nil
}
