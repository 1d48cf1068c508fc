package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tmccall/taskward/internal/backend"
	"github.com/tmccall/taskward/internal/logging"
	"github.com/tmccall/taskward/internal/orchestrator"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the Taskward daemon",
	Long: `Run the daemon in the foreground. It watches the tasks directory of
every enabled project, queues new task files, and executes them one at
a time per project until interrupted.

SIGINT or SIGTERM triggers a graceful shutdown: intake stops first,
then the task currently running in each project is allowed to finish.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, reg, err := loadRegistry()
	if err != nil {
		return err
	}

	b, err := backend.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	log := logging.NopLogger()
	if cfg.Logging.Enabled {
		log, err = logging.NewLoggerWithRotation(
			filepath.Join(cfg.Paths.ResolveDataDir(), "logs"),
			cfg.Logging.Level,
			logging.RotationConfig{
				MaxSizeMB:  cfg.Logging.MaxSizeMB,
				MaxBackups: cfg.Logging.MaxBackups,
			},
		)
		if err != nil {
			return fmt.Errorf("failed to open daemon log: %w", err)
		}
	}
	defer log.Close()

	orch, err := orchestrator.New(cfg, reg, b, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Taskward daemon started (backend: %s, registry: %s)\n", b.Name(), reg.Path())
	if err := orch.Run(ctx); err != nil {
		return err
	}
	fmt.Println("Taskward daemon stopped")
	return nil
}
