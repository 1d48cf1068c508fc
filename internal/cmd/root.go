package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tmccall/taskward/internal/config"
	"github.com/tmccall/taskward/internal/registry"
)

var rootCmd = &cobra.Command{
	Use:   "taskward",
	Short: "File-driven task queue for agent backends",
	Long: `Taskward watches the tasks directory of every registered project,
queues new task files in arrival order, and executes them one at a
time per project through an agent backend, writing a result document
for each task.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/taskward/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/taskward")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("TASKWARD")
	// Replace dots with underscores for nested keys in env vars
	// e.g., TASKWARD_EXECUTOR_MAX_RETRIES for executor.max_retries
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// loadRegistry loads the configuration and opens the project registry.
// Every subcommand except the daemon itself goes through here.
func loadRegistry() (*config.Config, *registry.Registry, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	reg, err := registry.Open(cfg.Paths.RegistryFile())
	if err != nil {
		return nil, nil, err
	}
	return cfg, reg, nil
}
