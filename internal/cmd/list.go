package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered projects",
	Long:  `List all registered projects with their paths and enabled state.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	_, reg, err := loadRegistry()
	if err != nil {
		return err
	}

	projects := reg.List()
	if len(projects) == 0 {
		fmt.Println("No projects registered")
		return nil
	}

	for _, p := range projects {
		fmt.Printf("%s  %s\n", titleStyle.Render(p.Name), renderEnabled(p.Enabled))
		fmt.Printf("    %s\n", mutedStyle.Render(p.Path))
	}
	return nil
}
