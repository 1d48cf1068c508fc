package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var enableCmd = &cobra.Command{
	Use:   "enable <name>",
	Short: "Enable a project",
	Long:  `Resume watching and executing tasks for a previously disabled project.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runEnable,
}

var disableCmd = &cobra.Command{
	Use:   "disable <name>",
	Short: "Disable a project",
	Long: `Stop watching and executing tasks for a project without removing it
from the registry. Queued tasks stay queued and resume when the
project is enabled again.`,
	Args: cobra.ExactArgs(1),
	RunE: runDisable,
}

func init() {
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
}

func runEnable(cmd *cobra.Command, args []string) error {
	return setProjectEnabled(args[0], true)
}

func runDisable(cmd *cobra.Command, args []string) error {
	return setProjectEnabled(args[0], false)
}

func setProjectEnabled(name string, enabled bool) error {
	_, reg, err := loadRegistry()
	if err != nil {
		return err
	}

	p, err := reg.SetEnabled(name, enabled)
	if err != nil {
		return err
	}

	if p.Enabled {
		fmt.Printf("Enabled project %q\n", p.Name)
	} else {
		fmt.Printf("Disabled project %q\n", p.Name)
	}
	return nil
}
