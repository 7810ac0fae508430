package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/schmitthub/gangway/internal/config"
	"github.com/schmitthub/gangway/internal/logger"
	"github.com/schmitthub/gangway/pkg/compose"
)

var (
	// Version is set at build time.
	Version = "dev"

	configPath string
	debug      bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "gangway",
	Short: "Manage compose-file service environments",
	Long: `Gangway provisions groups of service containers from docker-compose
files, as described by a gangway.yaml stage configuration.

  gangway up       # run all stages, wait for readiness checks
  gangway status   # show container state per stage project
  gangway down     # tear every stage down (best effort)`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.NewLoader(configPath).Load()
		if err != nil {
			return err
		}
		cfg = loaded

		if err := logger.InitWithFile(debug, cfg.Logging.Dir, &logger.FileConfig{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
			MaxBackups: cfg.Logging.MaxBackups,
		}); err != nil {
			return err
		}

		if override := composeCommandOverride(cfg); override != "" {
			os.Setenv(compose.EnvComposeCommand, override)
		}

		logger.Debug().
			Str("version", Version).
			Str("config", configPath).
			Int("stages", len(cfg.Stages)).
			Msg("gangway starting")
		return nil
	},
	Version: Version,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", config.ConfigFileName, "Path to the stage configuration file")
	flags.BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	flags.String("compose-command", "", "Compose command line to drive (default: docker compose)")
	bindFlags(flags)
}

// bindFlags wires persistent flags into viper so flag values override
// file values.
func bindFlags(flags *pflag.FlagSet) {
	_ = viper.BindPFlag("compose_command", flags.Lookup("compose-command"))
	viper.SetEnvPrefix("GANGWAY")
	_ = viper.BindEnv("compose_command", compose.EnvComposeCommand)
}

// composeCommandOverride resolves the compose command line to drive. The
// --compose-command flag and the GANGWAY_COMPOSE_COMMAND environment
// variable win over the config file's compose_command key; empty means
// no override.
func composeCommandOverride(cfg *config.Config) string {
	if cmd := viper.GetString("compose_command"); cmd != "" {
		return cmd
	}
	return cfg.ComposeCommand
}

// buildEnvironment assembles the fixture environment from the loaded
// stage configuration.
func buildEnvironment() (*compose.Environment, error) {
	b := compose.NewBuilder()
	for _, st := range cfg.Stages {
		b.File(st.File)
		if st.Project != "" {
			b.ProjectName(st.Project)
		}
		if st.ForceRecreate {
			b.ForceRecreate()
		}
		if st.ForceDown {
			b.ForceDown()
		}
		for k, v := range st.Environment {
			b.Env(k, v)
		}
		for _, w := range st.WaitFor {
			timeout := w.Timeout
			if timeout == 0 {
				timeout = compose.DefaultWaitTimeout
			}
			interval := w.Interval
			if interval == 0 {
				interval = compose.DefaultWaitInterval
			}
			b.AfterStart(compose.WaitForPortTimeout(w.Service, w.Port, timeout, interval))
		}
	}
	return b.Build()
}

// stageRunners creates a standalone runner per configured stage, for
// commands that operate outside a fixture lifecycle (down, status).
func stageRunners() ([]*compose.Runner, error) {
	runners := make([]*compose.Runner, 0, len(cfg.Stages))
	for _, st := range cfg.Stages {
		opts := []compose.RunnerOption{}
		if st.Project != "" {
			opts = append(opts, compose.WithProjectName(st.Project))
		}
		r, err := compose.NewRunner(st.File, opts...)
		if err != nil {
			return nil, err
		}
		runners = append(runners, r)
	}
	return runners, nil
}
