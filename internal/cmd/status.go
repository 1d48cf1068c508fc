package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tmccall/taskward/internal/status"
)

var statusProject string

var statusCmd = &cobra.Command{
	Use:   "status [task-id]",
	Short: "Show queue status",
	Long: `Without arguments, show the queue of every registered project: the
running task, queued task IDs, and enabled state.

With a task ID, show that task's current status and, once it has
finished, its result. With --project, show only that project's queue.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusProject, "project", "", "limit output to one project's queue")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	_, reg, err := loadRegistry()
	if err != nil {
		return err
	}
	client := status.NewClient(reg)

	if len(args) == 1 {
		return printTaskStatus(client, args[0])
	}
	if statusProject != "" {
		ps, err := client.ProjectStatus(statusProject)
		if err != nil {
			return err
		}
		printProjectStatus(*ps)
		return nil
	}
	return printOverview(client)
}

func printOverview(client *status.Client) error {
	overview, err := client.Overview()
	if err != nil {
		return err
	}
	if len(overview) == 0 {
		fmt.Println("No projects registered")
		return nil
	}

	for _, ps := range overview {
		printProjectStatus(ps)
	}
	return nil
}

func printProjectStatus(ps status.ProjectStatus) {
	fmt.Printf("%s  %s\n", titleStyle.Render(ps.Project.Name), renderEnabled(ps.Project.Enabled))
	if ps.Running != "" {
		fmt.Printf("    running: %s\n", runningStyle.Render(ps.Running))
	}
	fmt.Printf("    queued:  %d\n", ps.Depth())
	for _, id := range ps.Queued {
		fmt.Printf("      %s\n", mutedStyle.Render(id))
	}
	fmt.Println()
}

func printTaskStatus(client *status.Client, taskID string) error {
	info, err := client.TaskStatus(taskID)
	if err != nil {
		return err
	}

	fmt.Printf("Task:    %s\n", info.TaskID)
	fmt.Printf("Project: %s\n", info.Project)
	fmt.Printf("Status:  %s\n", renderStatus(info.Status))

	if info.Result != nil {
		r := info.Result
		fmt.Printf("Duration: %s\n", status.FormatDuration(r.DurationSeconds))
		if r.RetryCount > 0 {
			fmt.Printf("Retries:  %d\n", r.RetryCount)
		}
		if r.Error != "" {
			fmt.Printf("Error:    %s\n", failedStyle.Render(r.Error))
		}
		if r.Summary != "" {
			fmt.Printf("\n%s\n", r.Summary)
		}
	}
	return nil
}
