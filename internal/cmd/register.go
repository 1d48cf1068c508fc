package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var registerName string

var registerCmd = &cobra.Command{
	Use:   "register <path>",
	Short: "Register a project directory",
	Long: `Register a project directory so the daemon watches it for task files.

Registration provisions the project's tasks/, results/, state/, and
logs/ directories under the project root. A running daemon picks up
the new project without a restart.`,
	Args: cobra.ExactArgs(1),
	RunE: runRegister,
}

func init() {
	registerCmd.Flags().StringVar(&registerName, "name", "", "project name (default is the directory base name)")
	rootCmd.AddCommand(registerCmd)
}

func runRegister(cmd *cobra.Command, args []string) error {
	_, reg, err := loadRegistry()
	if err != nil {
		return err
	}

	p, err := reg.Register(args[0], registerName)
	if err != nil {
		return err
	}

	fmt.Printf("Registered project %q at %s\n", p.Name, p.Path)
	fmt.Printf("Drop task files into %s\n", p.TasksDir())
	return nil
}
