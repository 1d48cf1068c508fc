package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var unregisterCmd = &cobra.Command{
	Use:   "unregister <name>",
	Short: "Unregister a project",
	Long: `Remove a project from the registry. The daemon stops watching it; a
task currently running there is allowed to finish and its result is
still written. The project's task and result files are left on disk.`,
	Args: cobra.ExactArgs(1),
	RunE: runUnregister,
}

func init() {
	rootCmd.AddCommand(unregisterCmd)
}

func runUnregister(cmd *cobra.Command, args []string) error {
	_, reg, err := loadRegistry()
	if err != nil {
		return err
	}

	if err := reg.Unregister(args[0]); err != nil {
		return err
	}

	fmt.Printf("Unregistered project %q\n", args[0])
	return nil
}
