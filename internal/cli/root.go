// Package cli implements the stealq command line.
package cli

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/symonk/stealq/internal/config"
)

// NewRootCommand builds the stealq command tree around its own viper
// instance.
func NewRootCommand() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "stealq",
		Short: "Work-stealing goroutine pool",
		Long: `stealq runs tasks on a pool of workers that each own a deque of
work and steal from their peers when they run dry.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v)
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "config file (default is ./stealq.yaml)")
	root.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "", "log format (json, console)")
	_ = v.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	_ = v.BindPFlag("log.level", root.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("log.format", root.PersistentFlags().Lookup("log-format"))

	root.AddCommand(newBenchCommand(v))
	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}

func initConfig(v *viper.Viper) error {
	config.SetDefaults(v)
	config.BindEnv(v)

	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		return v.ReadInConfig()
	}

	v.SetConfigName("stealq")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	return nil
}
