package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fpt/go-expert-panel/internal/config"
	pkgLogger "github.com/fpt/go-expert-panel/pkg/logger"
)

var (
	flagSettings string
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "expertpanel",
	Short: "Simulated expert panel discussions over interchangeable LLM backends",
	Long: `expertpanel assembles a panel of simulated experts, a moderator and a
coordinator, runs a round-robin discussion on a topic or document and
writes the transcript, analytics and metadata of the session.`,
	Example: `  expertpanel -t "Remote work policies" --domain business
  expertpanel --sample app_architecture_review
  expertpanel -d design.md --domain software_development -e 3
  expertpanel -c panel.yaml --provider gemini`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runPanel,
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagSettings, "settings", "", "Path to settings file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose logging (debug level)")

	addRunFlags(rootCmd)
	addRunFlags(runCmd)

	rootCmd.AddCommand(runCmd, domainsCmd, samplesCmd, schemaCmd, initCmd)
}

// loadSettings applies .env, the settings file and the environment, then
// configures the global logger
func loadSettings() (*config.Settings, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	settings, err := config.Load(flagSettings)
	if err != nil {
		return nil, err
	}

	logLevel := settings.LogLevel
	if flagVerbose {
		logLevel = string(pkgLogger.LogLevelDebug)
	}
	pkgLogger.SetGlobalLogLevel(pkgLogger.LogLevel(logLevel))
	pkgLogger.Default.DebugWithIcon("📊", "Verbose logging enabled", "log_level", logLevel)
	return settings, nil
}
